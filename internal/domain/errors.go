package domain

import "fmt"

type ErrCode string

const (
	CodeValidation   ErrCode = "validation_error"
	CodeUnauthorized ErrCode = "unauthorized"
	CodeNotFound     ErrCode = "not_found"
	CodeUpstream     ErrCode = "upstream_error"
	CodeRateLimited  ErrCode = "rate_limited"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}
func ErrUnauthorized(msg string) error { return &AppError{Code: CodeUnauthorized, Message: msg} }
func ErrNotFound(msg string) error     { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrUpstream(msg string) error     { return &AppError{Code: CodeUpstream, Message: msg} }
func ErrRateLimited(msg string) error  { return &AppError{Code: CodeRateLimited, Message: msg} }
