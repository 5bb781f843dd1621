package guard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
	"github.com/dmitrijs2005/dryerwatch/internal/client/session"
)

func TestRequire(t *testing.T) {
	u := &models.User{ID: 1}

	tests := []struct {
		name  string
		state session.State
		want  error
	}{
		{"loading", session.State{Status: session.StatusLoading}, ErrLoading},
		{"unauthenticated", session.State{Status: session.StatusUnauthenticated}, ErrLoginRequired},
		{"error", session.State{Status: session.StatusError, Err: "bad"}, ErrLoginRequired},
		{"authenticated without token", session.State{Status: session.StatusAuthenticated, User: u}, ErrLoginRequired},
		{"authenticated", session.State{Status: session.StatusAuthenticated, User: u, Token: "t"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Require(tt.state)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}
