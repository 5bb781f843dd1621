package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/dryerwatch/internal/common"
)

type recordingBoundary struct {
	LastErr  error
	LastInfo ErrorInfo
}

func (b *recordingBoundary) OnError(_ context.Context, err error, info ErrorInfo) {
	b.LastErr = err
	b.LastInfo = info
}

func (b *recordingBoundary) Fallback(state FallbackState) string {
	return "fallback for " + state.Component
}

func TestGuard_RecoversPanic(t *testing.T) {
	b := &recordingBoundary{}

	err := Guard(context.Background(), "status", b, func(context.Context) error {
		panic("nil map")
	})

	var be *BoundaryError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "status", be.Component)
	assert.Equal(t, "fallback for status", be.Fallback)
	assert.Contains(t, be.Stack, "boundary_test.go")
	assert.EqualError(t, b.LastErr, "panic: nil map")
	assert.Equal(t, "status", b.LastInfo.Component)
}

func TestGuard_PassesErrorsThrough(t *testing.T) {
	b := &recordingBoundary{}
	want := errors.New("plain")

	err := Guard(context.Background(), "x", b, func(context.Context) error { return want })

	require.Same(t, want, err)
	assert.Nil(t, b.LastErr)
	assert.NoError(t, Guard(context.Background(), "x", b, func(context.Context) error { return nil }))
}

func TestDefaultBoundary_ReportsAndHidesStackOutsideDevelopment(t *testing.T) {
	r := NewReporter(newRepo(t), &fakeSender{}, WithOnline(false))
	ctx := context.Background()

	prod := DefaultBoundary{Reporter: r, Environment: common.EnvProduction}
	err := Guard(ctx, "export", prod, func(context.Context) error { panic(errors.New("boom")) })

	var be *BoundaryError
	require.ErrorAs(t, err, &be)
	assert.NotContains(t, be.Fallback, "Stack trace")
	assert.NotContains(t, be.Fallback, "boom")

	q := r.Pending()
	require.Len(t, q, 1)
	assert.Equal(t, TypeComponent, q[0].Type)
	assert.Equal(t, SeverityHigh, q[0].Severity)
	assert.Equal(t, "export", q[0].Payload["componentName"])

	dev := DefaultBoundary{Environment: common.EnvDevelopment}
	err = Guard(ctx, "export", dev, func(context.Context) error { panic("boom") })
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Fallback, "Stack trace")
	assert.Contains(t, be.Fallback, "boom")
}
