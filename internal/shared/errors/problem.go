// Package errors provides RFC 7807 Problem Details for HTTP APIs. Every
// problem written by the services carries a machine readable code next to
// the standard members, e.g. {"status":409,"code":"OUT_OF_STOCK",...}.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail represents an RFC 7807 Problem Details response.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Code is the machine readable reason, e.g. OUT_OF_STOCK.
	Code string `json:"code,omitempty"`
	// Extensions holds problem-specific members such as esperado/informado.
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithCode returns a copy carrying the machine readable code.
func (p ProblemDetail) WithCode(code string) ProblemDetail {
	p.Code = code
	return p
}

// WithExtension returns a copy with an additional extension member. The
// receiver's map is never shared with the copy.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext
	return p
}

// Codes shared by every service; domain codes live with each context's HTTP mapper.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeUpstream   = "UPSTREAM_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

const (
	TypeValidation = "/problems/validation-error"
	TypeNotFound   = "/problems/not-found"
	TypeConflict   = "/problems/conflict"
	TypeInternal   = "/problems/internal-error"
	TypeBadRequest = "/problems/bad-request"
	TypeUpstream   = "/problems/upstream-error"
	TypeTimeout    = "/problems/upstream-timeout"
	TypeIntegrity  = "/problems/data-integrity"
)

var (
	ErrNotFound = ProblemDetail{
		Type:   TypeNotFound,
		Title:  "Resource Not Found",
		Status: http.StatusNotFound,
	}

	ErrValidation = ProblemDetail{
		Type:   TypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
	}

	// ErrBadRequest is for bodies or parameters that could not be decoded.
	ErrBadRequest = ProblemDetail{
		Type:   TypeBadRequest,
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
	}

	// ErrConflict covers business rejections: stock, amounts, state transitions.
	ErrConflict = ProblemDetail{
		Type:   TypeConflict,
		Title:  "Conflict",
		Status: http.StatusConflict,
	}

	ErrInternal = ProblemDetail{
		Type:   TypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Code:   CodeInternal,
	}

	// ErrUpstream indicates a collaborator failed or was unreachable.
	ErrUpstream = ProblemDetail{
		Type:   TypeUpstream,
		Title:  "Upstream Error",
		Status: http.StatusBadGateway,
		Code:   CodeUpstream,
	}

	// ErrTimeout indicates a collaborator did not answer in time.
	ErrTimeout = ProblemDetail{
		Type:   TypeTimeout,
		Title:  "Upstream Timeout",
		Status: http.StatusGatewayTimeout,
		Code:   CodeUpstream,
	}

	// ErrDataIntegrity indicates stored data violates an invariant.
	ErrDataIntegrity = ProblemDetail{
		Type:   TypeIntegrity,
		Title:  "Data Integrity Violation",
		Status: http.StatusInternalServerError,
	}
)
