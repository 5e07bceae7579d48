// Package pipeline runs a mutation as an ordered chain of stages:
//
//	chain := pipeline.First[state]("register", pipeline.Validate, "required-fields", checkFields).
//	    Then(pipeline.Guard, "email-unique", checkEmail).
//	    Then(pipeline.Store, "insert", insert)
//
// Each stage receives the same per-request state. The first failing stage
// ends the run; its error is returned untouched so callers keep the
// classification the stage chose.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
)

// Phase is the state a request reaches once a stage of that phase succeeds.
type Phase string

const (
	Received   Phase = "received"
	Validate   Phase = "validated"
	Guard      Phase = "guarded"
	Store      Phase = "stored"
	SideEffect Phase = "side-effected"
	Responded  Phase = "responded"
	Failed     Phase = "error"
)

type StageFunc[T any] func(ctx context.Context, state *T) error

type mode int

const (
	required mode = iota
	bestEffort
	detached
)

type stage[T any] struct {
	name  string
	phase Phase
	f     StageFunc[T]
	mode  mode
}

type Chain[T any] struct {
	name   string
	stages []stage[T]
	bg     *Background
	logger *slog.Logger
}

// Result describes how far a run got. On failure Reached is Failed and
// Stage names the stage that stopped it.
type Result struct {
	Reached Phase
	Stage   string
	Elapsed time.Duration
}

func First[T any](name string, phase Phase, stageName string, f StageFunc[T]) *Chain[T] {
	ch := &Chain[T]{name: name, logger: slog.Default()}
	return ch.Then(phase, stageName, f)
}

func (ch *Chain[T]) Then(phase Phase, name string, f StageFunc[T]) *Chain[T] {
	ch.stages = append(ch.stages, stage[T]{name: name, phase: phase, f: f, mode: required})
	return ch
}

// ThenBestEffort adds a side effect whose failure is logged and swallowed.
func (ch *Chain[T]) ThenBestEffort(name string, f StageFunc[T]) *Chain[T] {
	ch.stages = append(ch.stages, stage[T]{name: name, phase: SideEffect, f: f, mode: bestEffort})
	return ch
}

// ThenDetached adds a best-effort side effect that runs on bg after the
// chain returns. f must only read the state.
func (ch *Chain[T]) ThenDetached(bg *Background, name string, f StageFunc[T]) *Chain[T] {
	ch.bg = bg
	ch.stages = append(ch.stages, stage[T]{name: name, phase: SideEffect, f: f, mode: detached})
	return ch
}

func (ch *Chain[T]) WithLogger(l *slog.Logger) *Chain[T] {
	ch.logger = l
	return ch
}

func (ch *Chain[T]) Run(ctx context.Context, state *T) (Result, error) {
	start := time.Now()
	res := Result{Reached: Received}

	for _, s := range ch.stages {
		switch s.mode {
		case detached:
			s := s
			ch.bg.Go(ch.name+"/"+s.name, func(ctx context.Context) error {
				return s.f(ctx, state)
			})
			res.Reached = s.phase
			continue
		case bestEffort:
			t := time.Now()
			if err := s.f(ctx, state); err != nil {
				ch.logger.WarnContext(ctx, "best-effort stage failed",
					"pipeline", ch.name, "stage", s.name, "elapsed", time.Since(t), "error", err)
			}
			res.Reached = s.phase
			continue
		}

		t := time.Now()
		err := s.f(ctx, state)
		elapsed := time.Since(t)
		if err != nil {
			res.Reached = Failed
			res.Stage = s.name
			res.Elapsed = time.Since(start)
			ch.logFailure(ctx, s, elapsed, err)
			return res, err
		}
		ch.logger.DebugContext(ctx, "stage complete",
			"pipeline", ch.name, "stage", s.name, "phase", s.phase, "elapsed", elapsed)
		res.Reached = s.phase
	}

	res.Reached = Responded
	res.Elapsed = time.Since(start)
	return res, nil
}

func (ch *Chain[T]) logFailure(ctx context.Context, s stage[T], elapsed time.Duration, err error) {
	kind := apperr.KindOf(err)
	attrs := []any{"pipeline", ch.name, "stage", s.name, "phase", s.phase, "kind", kind, "elapsed", elapsed, "error", err}
	if apperr.Status(kind) >= 500 {
		ch.logger.ErrorContext(ctx, "pipeline failed", attrs...)
		return
	}
	ch.logger.WarnContext(ctx, "pipeline rejected", attrs...)
}
