// Package pipeline provides the stage abstraction the camera feed builds
// its transform chain from.
package pipeline

import (
	"context"
	"fmt"
)

// Stage represents a processing stage in the pipeline.
// Each stage takes an input and produces an output.
type Stage[In, Out any] interface {
	// Execute runs the stage with the given input and returns the output.
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc is a function adapter for Stage interface.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute implements Stage interface.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// Named is a stage with a name used in error messages.
type Named[T any] struct {
	Name  string
	Stage Stage[T, T]
}

// Chain runs stages in order, feeding each output to the next stage. The
// first failure stops the chain and is wrapped with the stage name.
type Chain[T any] struct {
	stages []Named[T]
}

// NewChain creates an empty chain.
func NewChain[T any]() *Chain[T] {
	return &Chain[T]{}
}

// Then appends a stage and returns the chain.
func (c *Chain[T]) Then(name string, stage Stage[T, T]) *Chain[T] {
	c.stages = append(c.stages, Named[T]{Name: name, Stage: stage})
	return c
}

// Len returns the number of stages.
func (c *Chain[T]) Len() int {
	return len(c.stages)
}

// Names returns the stage names in execution order.
func (c *Chain[T]) Names() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name
	}
	return names
}

// Execute implements Stage.
func (c *Chain[T]) Execute(ctx context.Context, input T) (T, error) {
	v := input
	for _, s := range c.stages {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		out, err := s.Stage.Execute(ctx, v)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("%s stage: %w", s.Name, err)
		}
		v = out
	}
	return v, nil
}

var _ Stage[int, int] = (*Chain[int])(nil)
