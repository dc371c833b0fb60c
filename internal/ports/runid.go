package ports

import (
	"context"

	"github.com/google/uuid"
)

type runIDKey struct{}

// WithRunID attaches the run identifier to the context so methods and
// adapters can correlate their output with a workflow run.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID extracts the run identifier from context. It returns an empty string
// when none has been set.
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// NewRunID produces a new random run identifier.
func NewRunID() string {
	return uuid.NewString()
}
