package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		ok      bool
		kind    ErrKind
		message string
		want    item
	}{
		{name: "envelope data", body: `{"success":true,"data":{"name":"a"}}`, ok: true, want: item{Name: "a"}},
		{name: "flat body", body: `{"name":"b"}`, ok: true, want: item{Name: "b"}},
		{name: "success without data", body: `{"success":true,"message":"done"}`, ok: true},
		{name: "rejected string error", body: `{"success":false,"error":"nope"}`, kind: KindRejected, message: "nope"},
		{name: "rejected object error", body: `{"success":false,"error":{"message":"deep"}}`, kind: KindRejected, message: "deep"},
		{name: "rejected message", body: `{"success":false,"message":"msg"}`, kind: KindRejected, message: "msg"},
		{name: "not json", body: `<html>`, kind: KindMalformed},
		{name: "wrong shape", body: `{"success":true,"data":[1,2]}`, kind: KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Decode[item]([]byte(tt.body))
			require.Equal(t, tt.ok, r.IsOk())
			if tt.ok {
				assert.Equal(t, tt.want, r.Data())
				v, err := r.Unwrap()
				require.NoError(t, err)
				assert.Equal(t, tt.want, v)
				return
			}
			assert.Equal(t, tt.kind, r.Kind())
			if tt.message != "" {
				assert.Equal(t, tt.message, r.Message())
			}
			_, err := r.Unwrap()
			if tt.kind == KindRejected {
				require.ErrorIs(t, err, ErrRejected)
			} else {
				require.ErrorIs(t, err, ErrMalformed)
			}
		})
	}
}

func TestDecode_Slice(t *testing.T) {
	r := Decode[[]item]([]byte(`{"success":true,"data":[{"name":"x"},{"name":"y"}]}`))
	require.True(t, r.IsOk())
	require.Len(t, r.Data(), 2)
}
