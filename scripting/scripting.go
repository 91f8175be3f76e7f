// Package scripting validates and runs the JavaScript that documents embed.
// Embedded scripts execute inside the consuming viewer, far from any place
// an author can debug them, so catching syntax errors at build time is worth
// the parse.
package scripting

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// Validate parses source and returns an error describing the first syntax
// problem. name labels the script in error messages.
func Validate(name, source string) error {
	if _, err := goja.Compile(name, source, false); err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	return nil
}

// Engine runs scripts in an isolated interpreter, one per Engine. It is not
// safe for concurrent use.
type Engine struct {
	vm *goja.Runtime
}

// NewEngine creates a fresh interpreter with no host bindings.
func NewEngine() *Engine {
	return &Engine{vm: goja.New()}
}

// Run executes source and returns its completion value rendered as a
// string. The context deadline or cancellation interrupts the interpreter.
func (e *Engine) Run(ctx context.Context, name, source string) (string, error) {
	prog, err := goja.Compile(name, source, false)
	if err != nil {
		return "", fmt.Errorf("scripting: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	start := time.Now()
	val, err := e.vm.RunProgram(prog)
	if err != nil {
		if _, ok := err.(*goja.InterruptedError); ok {
			return "", fmt.Errorf("scripting: %s interrupted after %s: %w", name, time.Since(start), ctx.Err())
		}
		return "", fmt.Errorf("scripting: %w", err)
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return "", nil
	}
	return val.String(), nil
}
