// Package tokenstore persists the bearer token and the authenticated user
// record in the local metadata table.
package tokenstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
	"github.com/dmitrijs2005/dryerwatch/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/dryerwatch/internal/common"
	"github.com/dmitrijs2005/dryerwatch/internal/dbx"
)

// Credentials is a persisted token together with its user.
type Credentials struct {
	Token string
	User  models.User
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) repo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// Save writes both credential keys in one transaction.
func (s *Store) Save(ctx context.Context, token string, user models.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.KeyAuthToken, []byte(token)); err != nil {
			return err
		}
		return repo.Set(ctx, common.KeyAuthUser, userJSON)
	})
}

// Load returns the stored credentials, or (nil, nil) when none are present.
// A token without a readable user record is treated as absent and both keys
// are removed.
func (s *Store) Load(ctx context.Context) (*Credentials, error) {
	repo := s.repo()

	token, err := repo.Get(ctx, common.KeyAuthToken)
	if err != nil {
		return nil, err
	}
	rawUser, err := repo.Get(ctx, common.KeyAuthUser)
	if err != nil {
		return nil, err
	}

	if len(token) == 0 && rawUser == nil {
		return nil, nil
	}

	var user models.User
	if len(token) == 0 || rawUser == nil || json.Unmarshal(rawUser, &user) != nil {
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &Credentials{Token: string(token), User: user}, nil
}

// Clear removes the credential keys only.
func (s *Store) Clear(ctx context.Context) error {
	return s.repo().Delete(ctx, common.CredentialKeys...)
}

// Token returns the stored token or "" when there is none.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, err := s.repo().Get(ctx, common.KeyAuthToken)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// HasToken reports whether a token is stored. Read errors count as absent.
func (s *Store) HasToken(ctx context.Context) bool {
	tok, err := s.Token(ctx)
	return err == nil && tok != ""
}

// User returns the stored user record, or nil when absent or unreadable.
func (s *Store) User(ctx context.Context) (*models.User, error) {
	var u models.User
	ok, err := metadata.GetJSON(ctx, s.repo(), common.KeyAuthUser, &u)
	switch {
	case errors.Is(err, metadata.ErrCorrupt):
		return nil, nil
	case err != nil:
		return nil, err
	case !ok:
		return nil, nil
	}
	return &u, nil
}

// UserID identifies the operator for diagnostics. It returns "anonymous"
// when nobody is logged in.
func (s *Store) UserID(ctx context.Context) string {
	u, err := s.User(ctx)
	if err != nil || u == nil {
		return "anonymous"
	}
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.ID, 10)
}
