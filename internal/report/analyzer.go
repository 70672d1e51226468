package report

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

// Analyzer supplies the sub-scores for one input of a pipeline, e.g. a risk
// engine producing per-factor risk scores for an asset. Analyzers live outside
// this service; the assembler only consumes what they return.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, subject string) (scoring.ScoreSet, error)
}

type funcAnalyzer struct {
	name string
	fn   func(ctx context.Context, subject string) (scoring.ScoreSet, error)
}

// AnalyzerFunc wraps a plain function as a named Analyzer.
func AnalyzerFunc(name string, fn func(ctx context.Context, subject string) (scoring.ScoreSet, error)) Analyzer {
	return &funcAnalyzer{name: name, fn: fn}
}

func (f *funcAnalyzer) Name() string { return f.name }

func (f *funcAnalyzer) Analyze(ctx context.Context, subject string) (scoring.ScoreSet, error) {
	return f.fn(ctx, subject)
}

// Collect runs the analyzers concurrently and returns their score sets keyed by
// analyzer name. The first failure cancels the rest.
func Collect(ctx context.Context, subject string, analyzers ...Analyzer) (map[string]scoring.ScoreSet, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]scoring.ScoreSet, len(analyzers))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, an := range analyzers {
		an := an
		g.Go(func() error {
			scores, err := an.Analyze(gctx, subject)
			if err != nil {
				return fmt.Errorf("analyzer %s: %w", an.Name(), err)
			}
			mu.Lock()
			out[an.Name()] = scores
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
