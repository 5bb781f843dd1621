package telemetry

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/dmitrijs2005/dryerwatch/internal/common"
)

// ErrorInfo describes where a recovered failure happened.
type ErrorInfo struct {
	Component string
	Stack     string
}

// FallbackState is handed to Boundary.Fallback to render a replacement for
// the failed component.
type FallbackState struct {
	Err       error
	Component string
	Stack     string
}

// Boundary is implemented by anything that wraps a component and wants to
// observe and replace its failures.
type Boundary interface {
	OnError(ctx context.Context, err error, info ErrorInfo)
	Fallback(state FallbackState) string
}

// BoundaryError is returned by Guard when fn panicked.
type BoundaryError struct {
	Component string
	Err       error
	Stack     string
	Fallback  string
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *BoundaryError) Unwrap() error {
	return e.Err
}

// DefaultBoundary reports to a Reporter and renders a generic retry message.
// Stack details are rendered only in development.
type DefaultBoundary struct {
	Reporter    *Reporter
	Environment string
}

func (b DefaultBoundary) OnError(ctx context.Context, err error, info ErrorInfo) {
	if b.Reporter != nil {
		b.Reporter.ReportComponentError(ctx, err, info.Component, info.Stack, nil)
	}
}

func (b DefaultBoundary) Fallback(state FallbackState) string {
	var sb strings.Builder
	sb.WriteString("Something went wrong. The error has been logged; try the command again or log in again.")
	if b.Environment == common.EnvDevelopment {
		fmt.Fprintf(&sb, "\n\nError: %v", state.Err)
		if state.Stack != "" {
			fmt.Fprintf(&sb, "\n\nStack trace:\n%s", state.Stack)
		}
	}
	return sb.String()
}

// Guard runs fn and converts a panic into a *BoundaryError after reporting
// it through b. Errors returned by fn pass through unchanged.
func Guard(ctx context.Context, component string, b Boundary, fn func(ctx context.Context) error) (err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}

		perr, ok := p.(error)
		if !ok {
			perr = fmt.Errorf("panic: %v", p)
		}
		stack := string(debug.Stack())

		be := &BoundaryError{Component: component, Err: perr, Stack: stack}
		if b != nil {
			b.OnError(ctx, perr, ErrorInfo{Component: component, Stack: stack})
			be.Fallback = b.Fallback(FallbackState{Err: perr, Component: component, Stack: stack})
		}
		err = be
	}()

	return fn(ctx)
}
