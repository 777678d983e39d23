// Package saga runs a sequence of steps and undoes the completed ones, in
// reverse order, when a later step fails.
package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Step is one unit of a saga. Compensate may be nil for steps with nothing to undo.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError reports which step failed. Unwrap yields the step's error so
// callers keep matching on their own sentinels.
type StepError struct {
	Step string
	Err  error
	// CompensationErrs holds failures of the rollback, if any.
	CompensationErrs []error
}

func (e *StepError) Error() string {
	if len(e.CompensationErrs) == 0 {
		return fmt.Sprintf("saga step %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("saga step %s: %v (compensation failed: %v)", e.Step, e.Err, errors.Join(e.CompensationErrs...))
}

func (e *StepError) Unwrap() error { return e.Err }

// Runner executes steps with LIFO compensation.
type Runner struct {
	name    string
	logger  *slog.Logger
	metrics *Metrics
}

func New(name string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{name: name, logger: logger}
}

// WithMetrics makes the runner count runs and compensations.
func (r *Runner) WithMetrics(m *Metrics) *Runner {
	r.metrics = m
	return r
}

// Run executes steps in order. On failure the completed steps are compensated
// on a context that survives cancellation of ctx, and a *StepError is returned.
func (r *Runner) Run(ctx context.Context, steps ...Step) error {
	done := make([]Step, 0, len(steps))
	for _, step := range steps {
		if err := step.Execute(ctx); err != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "saga step failed, rolling back",
				slog.String("saga", r.name), slog.String("saga.step", step.Name),
				slog.Int("saga.completed", len(done)), slog.String("error", err.Error()))
			compErrs := r.rollback(ctx, done)
			outcome := "compensated"
			if len(compErrs) > 0 {
				outcome = "compensation_failed"
			}
			r.metrics.run(r.name, outcome)
			return &StepError{Step: step.Name, Err: err, CompensationErrs: compErrs}
		}
		done = append(done, step)
	}
	r.metrics.run(r.name, "completed")
	return nil
}

func (r *Runner) rollback(ctx context.Context, done []Step) []error {
	cctx := context.WithoutCancel(ctx)
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		err := step.Compensate(cctx)
		r.metrics.compensation(r.name, step.Name, err)
		if err != nil {
			r.logger.LogAttrs(cctx, slog.LevelError, "saga compensation failed",
				slog.String("saga", r.name), slog.String("saga.step", step.Name), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
		}
	}
	return errs
}

// Metrics counts saga outcomes. A nil *Metrics records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	compensations *prometheus.CounterVec
}

// NewMetrics builds the counters and registers them when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commerce", Subsystem: "saga", Name: "runs_total",
			Help: "Saga runs by outcome: completed, compensated or compensation_failed.",
		}, []string{"saga", "outcome"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commerce", Subsystem: "saga", Name: "compensations_total",
			Help: "Compensating actions executed per step.",
		}, []string{"saga", "step", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.compensations)
	}
	return m
}

func (m *Metrics) run(saga, outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(saga, outcome).Inc()
}

func (m *Metrics) compensation(saga, step string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.compensations.WithLabelValues(saga, step, outcome).Inc()
}
