package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Stage is one step of the pipeline. Stages read and extend the request
// state; an error stops the chain.
type Stage interface {
	Name() string
	Apply(ctx context.Context, st *state) error
}

type stageFunc struct {
	name  string
	apply func(ctx context.Context, st *state) error
}

func (s stageFunc) Name() string { return s.name }

func (s stageFunc) Apply(ctx context.Context, st *state) error { return s.apply(ctx, st) }

func newStage(name string, apply func(ctx context.Context, st *state) error) Stage {
	return stageFunc{name: name, apply: apply}
}

// runStages executes stages in order. st.stage names the stage in flight, so
// after a failure or panic it names the culprit.
func runStages(ctx context.Context, logger *zap.Logger, stages []Stage, st *state) error {
	for _, stage := range stages {
		st.stage = stage.Name()
		start := time.Now()
		err := stage.Apply(ctx, st)

		logger.Debug("pipeline step",
			zap.String("name", stage.Name()),
			zap.Duration("duration", time.Since(start)),
			zap.Bool("ok", err == nil),
		)

		if err != nil {
			return err
		}
	}
	return nil
}

// Names lists the stage names in execution order.
func Names(stages []Stage) []string {
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, s.Name())
	}
	return names
}
