// Package extract turns raw research records into a structured
// PropertyContext using an ordered chain of strategies.
package extract

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bid-sniper/internal/llm"
	"github.com/sells-group/bid-sniper/internal/model"
)

// Job identifies the work being priced.
type Job struct {
	Type    model.JobType
	Address string
}

// Strategy produces a PropertyContext from research records.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, records []model.SearchRecord, job Job) (*model.PropertyContext, error)
}

// Extractor runs strategies in order until one succeeds. The last strategy
// is always the heuristic, which cannot fail.
type Extractor struct {
	strategies []Strategy
	heuristic  *Heuristic
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the clock used by the heuristic for ownership duration.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.heuristic.nowFunc = now
	}
}

// New builds the strategy chain: [model, heuristic] when gen is non-nil,
// else [heuristic].
func New(gen llm.Generator, opts ...Option) *Extractor {
	e := &Extractor{heuristic: NewHeuristic()}
	for _, o := range opts {
		o(e)
	}
	if gen != nil {
		e.strategies = append(e.strategies, NewModelStrategy(gen))
	}
	e.strategies = append(e.strategies, e.heuristic)
	return e
}

// Strategies returns the strategy names in the order they run.
func (e *Extractor) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// Optimize extracts a context. It never fails: when an earlier strategy
// errors the next one runs, and the result is marked as a fallback with
// the first error as cause.
func (e *Extractor) Optimize(ctx context.Context, records []model.SearchRecord, job Job) model.Result[*model.PropertyContext] {
	var firstErr error
	for i, s := range e.strategies {
		pc, err := s.Extract(ctx, records, job)
		if err == nil && pc != nil {
			pc.Normalize()
			if i == 0 {
				return model.OK(pc)
			}
			return model.Degraded(pc, firstErr)
		}
		if err == nil {
			err = eris.Errorf("extract: %s returned no context", s.Name())
		}
		zap.L().Warn("extract: strategy failed, falling back",
			zap.String("strategy", s.Name()),
			zap.Error(err),
		)
		if firstErr == nil {
			firstErr = err
		}
	}

	// Unreachable with the heuristic terminal, kept so the contract holds
	// for any chain.
	return model.Degraded(model.NewPropertyContext(), firstErr)
}
