package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finance-doc-analyzer/internal/model"
	"finance-doc-analyzer/internal/pkg/logger"
)

type CoordinatorConfig struct {
	// OverallTimeout caps the whole fan-out; zero leaves only per-call timeouts.
	OverallTimeout time.Duration
	// MaxConcurrency limits in-flight calls; zero runs every type at once.
	MaxConcurrency int
}

// Coordinator fans one invocation out to every registered analysis type and
// waits for all of them. A failing call never cancels its siblings.
type Coordinator struct {
	invoker  Invoker
	registry []Registration
	cfg      CoordinatorConfig
}

func NewCoordinator(invoker Invoker, registry []Registration, cfg CoordinatorConfig) *Coordinator {
	regs := make([]Registration, len(registry))
	copy(regs, registry)
	return &Coordinator{
		invoker:  invoker,
		registry: regs,
		cfg:      cfg,
	}
}

// Types returns the registered analysis types in display order.
func (c *Coordinator) Types() []model.AnalysisType {
	types := make([]model.AnalysisType, len(c.registry))
	for i, reg := range c.registry {
		types[i] = reg.Type
	}
	return types
}

// RunAll returns exactly one terminal outcome per registered type, in
// registration order, regardless of completion order.
func (c *Coordinator) RunAll(ctx context.Context, documentID string, in Invocation) []model.AnalysisOutcome {
	outcomes := make([]model.AnalysisOutcome, len(c.registry))
	if len(c.registry) == 0 {
		return outcomes
	}

	runCtx := ctx
	if c.cfg.OverallTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.cfg.OverallTimeout)
		defer cancel()
	}

	log := logger.FromContext(ctx).With("document_id", documentID)
	started := time.Now()
	var g errgroup.Group
	if c.cfg.MaxConcurrency > 0 {
		g.SetLimit(c.cfg.MaxConcurrency)
	}
	for i, reg := range c.registry {
		outcomes[i] = model.PendingOutcome(reg.Type)
		g.Go(func() error {
			callStarted := time.Now()
			outcomes[i] = c.invokeOne(runCtx, reg, in)
			log.Info("analysis call settled",
				"type", reg.Type,
				"status", outcomes[i].Status,
				"duration_ms", time.Since(callStarted).Milliseconds(),
			)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Status == model.StatusFailed {
			failed++
		}
	}
	log.Info("analysis fan-out finished",
		"types", len(outcomes),
		"failed", failed,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return outcomes
}

// invokeOne waits for the invoker or for the run deadline, whichever comes
// first, so an invoker that ignores its context cannot hold the join.
func (c *Coordinator) invokeOne(ctx context.Context, reg Registration, in Invocation) model.AnalysisOutcome {
	if err := ctx.Err(); err != nil {
		return model.FailedOutcome(reg.Type, contextMessage(err))
	}

	done := make(chan model.AnalysisOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- model.FailedOutcome(reg.Type, fmt.Sprintf("analysis panicked: %v", r))
			}
		}()
		done <- c.invoker.Invoke(ctx, reg, in)
	}()

	select {
	case out := <-done:
		return settle(reg.Type, out)
	case <-ctx.Done():
		return model.FailedOutcome(reg.Type, contextMessage(ctx.Err()))
	}
}

// settle tags the outcome with its type and forces it into a terminal state.
func settle(t model.AnalysisType, out model.AnalysisOutcome) model.AnalysisOutcome {
	switch out.Status {
	case model.StatusCompleted:
		return model.CompletedOutcome(t, out.Payload)
	case model.StatusFailed:
		return model.FailedOutcome(t, out.Error)
	default:
		return model.FailedOutcome(t, "analysis did not reach a terminal state")
	}
}

func contextMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return msgTimeout
	}
	return msgCanceled
}
