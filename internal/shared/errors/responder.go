package errors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type for Problem Details responses.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper translates one family of domain errors into a problem.
type ErrorMapper func(err error) (ProblemDetail, bool)

// Responder writes problems for gin and plain net/http handlers. Errors no
// mapper recognises become a 500 whose detail hides the cause; the cause is logged.
type Responder struct {
	// BaseURI is prepended to relative problem type URIs.
	BaseURI string
	logger  *slog.Logger
	mappers []ErrorMapper
}

// NewResponder builds a responder that consults mappers in order.
func NewResponder(baseURI string, mappers ...ErrorMapper) *Responder {
	return &Responder{BaseURI: baseURI, mappers: mappers}
}

// WithLogger returns a copy that logs 5xx problems and unmapped errors to
// logger instead of slog.Default().
func (r *Responder) WithLogger(logger *slog.Logger) *Responder {
	clone := *r
	clone.logger = logger
	return &clone
}

// Problem maps err through the chain.
func (r *Responder) Problem(ctx context.Context, err error) ProblemDetail {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			return problem
		}
	}
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem
	}
	r.log(ctx, "unmapped error", err)
	return ErrInternal.WithDetail("unexpected error")
}

// Respond sends problem on a gin context.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	problem = r.prepare(problem, c.Request)
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// RespondError maps err and sends it on a gin context.
func (r *Responder) RespondError(c *gin.Context, err error) {
	problem := r.Problem(c.Request.Context(), err)
	if problem.Status >= http.StatusInternalServerError {
		r.log(c.Request.Context(), problem.Title, err)
	}
	r.Respond(c, problem)
}

// Write sends problem on a plain http.ResponseWriter.
func (r *Responder) Write(w http.ResponseWriter, req *http.Request, problem ProblemDetail) {
	problem = r.prepare(problem, req)
	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

func (r *Responder) prepare(problem ProblemDetail, req *http.Request) ProblemDetail {
	if r.BaseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.BaseURI + problem.Type
	}
	if problem.Instance == "" && req != nil {
		problem.Instance = req.URL.Path
	}
	return problem
}

func (r *Responder) log(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}
	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(ctx, slog.LevelError, msg, slog.String("error", err.Error()))
}
