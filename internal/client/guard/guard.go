// Package guard decides whether a protected command may run in the current
// session state.
package guard

import (
	"errors"

	"github.com/dmitrijs2005/dryerwatch/internal/client/session"
)

var (
	ErrLoading       = errors.New("session is loading, please wait")
	ErrLoginRequired = errors.New("login required")
)

// Require returns nil only for an authenticated session.
func Require(s session.State) error {
	switch {
	case s.Status == session.StatusLoading:
		return ErrLoading
	case !s.IsAuthenticated():
		return ErrLoginRequired
	}
	return nil
}
