package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAggregateRecord_DecodesBackendShape(t *testing.T) {
	raw := `{"date":"2026-10-15","timeSlot":"08:00","meanTemp":71.25,"minTemp":"70.1","maxTemp":72.5,"sampleCount":120,"isExported":true}`

	var rec AggregateRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	require.Equal(t, "08:00", rec.TimeSlot)
	require.True(t, rec.MeanTemp.Equal(decimal.RequireFromString("71.25")))
	require.True(t, rec.MinTemp.Equal(decimal.RequireFromString("70.1")))
	require.Equal(t, 120, rec.SampleCount)
	require.True(t, rec.IsExported)
}

func TestRegisterRequest_DoesNotSendConfirmation(t *testing.T) {
	b, err := json.Marshal(RegisterRequest{Username: "op", Email: "op@plant", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)
	require.NotContains(t, string(b), "confirm")
	require.Contains(t, string(b), `"password":"secret1"`)
}
