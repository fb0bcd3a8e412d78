// Package native binds the consumer goroutine to the native storage
// runtime's threading model.
package native

import (
	"log/slog"
	"runtime"

	"ha-bridge/internal/domain"
)

// Runtime pins the consumer goroutine to a single OS thread for the
// lifetime of the loop. The native runtime is not reentrant and
// requires every call to arrive on the thread it adopted, so the
// adopt/release pair must bracket all native calls.
type Runtime struct {
	logger *slog.Logger
}

func NewRuntime(logger *slog.Logger) domain.NativeRuntime {
	return &Runtime{logger: logger.With("component", "native-runtime")}
}

func (r *Runtime) AdoptThread() error {
	runtime.LockOSThread()
	r.logger.Info("consumer thread adopted by native runtime")
	return nil
}

func (r *Runtime) ReleaseThread() {
	runtime.UnlockOSThread()
	r.logger.Info("consumer thread released by native runtime")
}
