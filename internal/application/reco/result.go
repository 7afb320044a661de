package reco

import "github.com/apothio/storefront-reco/internal/domain"

// Status discriminates the three outcomes a caller must handle differently:
// ranked items, "nothing personalized to say" (fall back, not an error),
// and a genuine failure (retry or fall back per kind).
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
)

// ErrorKind mirrors the HTTP-level error taxonomy so a client can pick
// its fallback path without inspecting exception text.
type ErrorKind string

const (
	ErrorNone        ErrorKind = ""
	ErrorAuth        ErrorKind = "unauthorized"
	ErrorValidation  ErrorKind = "validation_error"
	ErrorUpstream    ErrorKind = "upstream_error"
	ErrorRateLimited ErrorKind = "rate_limited"
)

type Result struct {
	Status Status
	Items  []domain.Candidate
	Err    ErrorKind
}

func ok(items []domain.Candidate) Result { return Result{Status: StatusOK, Items: items} }
func empty() Result                      { return Result{Status: StatusEmpty} }
func failed(kind ErrorKind) Result       { return Result{Status: StatusFailed, Err: kind} }
