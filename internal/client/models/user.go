// Package models defines the records exchanged with the monitoring backend.
package models

// User is the authenticated operator as returned by the backend.
type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	IsDefaultAdmin bool   `json:"isDefaultAdmin,omitempty"`
}

// LoginData is the payload of a successful login.
type LoginData struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest carries the registration form. ConfirmPassword never leaves
// the client.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

// AuthInfo describes how the backend authenticates operators.
type AuthInfo struct {
	AuthSystem           string `json:"authSystem"`
	DefaultAdminUsername string `json:"defaultAdminUsername,omitempty"`
	Message              string `json:"message,omitempty"`
}
