package backends

import (
	"context"

	"scrivo/internal/inject"
)

// NoOpInjector accepts every attempt without touching the desktop. It is
// only registered when explicitly enabled and exists for dry runs and
// integration testing on headless machines.
type NoOpInjector struct{}

func (NoOpInjector) Method() inject.Method { return inject.NoOp }

func (NoOpInjector) Attempt(context.Context, string, *inject.Context) *inject.AttemptError {
	return nil
}
