package response

import (
	"encoding/json"
	"errors"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	"github.com/apothio/storefront-reco/internal/domain"
)

// Envelope is the success body: {"success":true,"data":...}
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorBody is the flat error body the storefront clients switch on:
// {"error":"...","details":"..."}
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// JSON writes raw JSON with Content-Type.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data wraps payload with the success envelope.
func Data(w http.ResponseWriter, status int, payload any) {
	JSON(w, status, Envelope{Success: true, Data: payload})
}

// Fail writes the flat error body.
func Fail(w http.ResponseWriter, status int, message, details string) {
	JSON(w, status, ErrorBody{Error: message, Details: details})
}

// Err maps an application error onto the wire. Unknown errors keep their
// details in logs only.
func Err(w http.ResponseWriter, err error) {
	if err == nil {
		Fail(w, http.StatusInternalServerError, "internal error", "")
		return
	}

	var ae *domain.AppError
	if errors.As(err, &ae) {
		Fail(w, statusFromCode(ae.Code), ae.Message, metaDetails(ae.Meta))
		return
	}

	zlog.Error().Err(err).Msg("unhandled error")
	Fail(w, http.StatusInternalServerError, "internal error", "")
}

func statusFromCode(code domain.ErrCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeRateLimited:
		return http.StatusTooManyRequests
	case domain.CodeUpstream:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func metaDetails(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return ""
	}
	return string(b)
}
