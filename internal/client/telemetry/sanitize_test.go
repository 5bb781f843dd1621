package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/dryerwatch/internal/common"
)

func TestSanitize_RecursiveAndTotal(t *testing.T) {
	in := map[string]any{
		"user": "op",
		"nested": map[string]any{
			"Password": "hunter2",
			"deeper": []any{
				map[string]any{"authToken": "abc", "value": 3.5},
				"plain",
			},
		},
		"api_KEY": 1,
		"count":   2,
	}

	out := Sanitize(in).(map[string]any)

	assert.Equal(t, map[string]any{
		"user": "op",
		"nested": map[string]any{
			"Password": common.RedactedMarker,
			"deeper": []any{
				map[string]any{"authToken": common.RedactedMarker, "value": 3.5},
				"plain",
			},
		},
		"api_KEY": common.RedactedMarker,
		"count":   2,
	}, out)

	assert.Equal(t, "hunter2", in["nested"].(map[string]any)["Password"], "input is not modified")
}

func TestSanitize_StructsGoThroughJSON(t *testing.T) {
	type creds struct {
		Username string `json:"username"`
		Secret   string `json:"clientSecret"`
	}
	out := Sanitize(creds{Username: "op", Secret: "s"})
	assert.Equal(t, map[string]any{"username": "op", "clientSecret": common.RedactedMarker}, out)
}

func TestSanitize_Scalars(t *testing.T) {
	assert.Nil(t, Sanitize(nil))
	assert.Equal(t, "x", Sanitize("x"))
	assert.Equal(t, 4, Sanitize(4))
	assert.Nil(t, SanitizeMap(nil))
}

func TestSanitize_LeavesKeepTheirType(t *testing.T) {
	at := time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC)
	var nilPtr *int
	in := map[string]any{
		"small":   int8(-3),
		"port":    uint16(5000),
		"flag":    uint8(1),
		"raw":     []byte("abc"),
		"at":      at,
		"temp":    decimal.RequireFromString("64.50"),
		"big":     uint64(1 << 60),
		"missing": nilPtr,
		"cause":   errors.New("boom"),
	}

	out := SanitizeMap(in)

	assert.Equal(t, int8(-3), out["small"])
	assert.Equal(t, uint16(5000), out["port"])
	assert.Equal(t, uint8(1), out["flag"])
	assert.Equal(t, []byte("abc"), out["raw"])
	assert.Equal(t, at, out["at"])
	assert.Equal(t, decimal.RequireFromString("64.50"), out["temp"])
	assert.Equal(t, uint64(1<<60), out["big"])
	assert.Equal(t, nilPtr, out["missing"])
	assert.EqualError(t, out["cause"].(error), "boom")
}

func TestSanitize_TypedContainersAreChecked(t *testing.T) {
	out := SanitizeMap(map[string]any{
		"headers": map[string]string{"Authorization": "Bearer x", "Accept": "json"},
		"tags":    []string{"a", "b"},
	})
	assert.Equal(t, map[string]any{"Authorization": common.RedactedMarker, "Accept": "json"}, out["headers"])
	assert.Equal(t, []any{"a", "b"}, out["tags"])
}
