package session

import "github.com/dmitrijs2005/dryerwatch/internal/client/models"

type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusError           Status = "error"
)

// State is an immutable snapshot of the session. User and Token are set only
// when Status is authenticated; Err only when Status is error.
type State struct {
	Status Status
	User   *models.User
	Token  string
	Err    string
}

func unauthenticated() State { return State{Status: StatusUnauthenticated} }

func loading() State { return State{Status: StatusLoading} }

func failed(msg string) State { return State{Status: StatusError, Err: msg} }

func authenticated(user models.User, token string) State {
	return State{Status: StatusAuthenticated, User: &user, Token: token}
}

func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.Token != "" && s.User != nil
}
