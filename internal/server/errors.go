package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/nao1215/seoprobe/internal/pipeline"
	"github.com/nao1215/seoprobe/internal/probe"
	"github.com/nao1215/seoprobe/internal/urlnorm"
)

// Error codes of the error envelope.
const (
	CodeInvalidURL    = "invalid_url"
	CodeUpstreamError = "upstream_error"
	CodeInternal      = "internal"
	CodeNotFound      = "not_found"
)

// ErrorBody is the payload of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope is the JSON body of every error response:
//
//	{"error": {"code": "invalid_url", "message": "..."}}
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func newErrorEnvelope(code, message string) ErrorEnvelope {
	return ErrorEnvelope{Error: ErrorBody{Code: code, Message: message}}
}

// classify maps a request-level error to its HTTP status and envelope code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, urlnorm.ErrInvalidURL):
		return http.StatusBadRequest, CodeInvalidURL
	case errors.Is(err, pipeline.ErrPageFetch),
		errors.Is(err, probe.ErrUpstream),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusBadGateway, CodeUpstreamError
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
