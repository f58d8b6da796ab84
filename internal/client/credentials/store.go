// Package credentials persists the access token, refresh token and user id
// that let a session survive a restart. The three entries are written and
// removed together; a reader never observes a partial record after a
// completed Save or Clear.
//
// The same key/value space carries small one-shot flags (see Get, Set,
// Delete), such as the router's reload marker.
package credentials

import (
	"context"
	"errors"
)

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUserID       = "auth_id"
)

var (
	ErrNoCredentials      = errors.New("no stored credentials")
	ErrPartialCredentials = errors.New("stored credentials are incomplete")
)

// Record is the durable token/user-id triple.
type Record struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

// Complete reports whether all three fields are present.
func (r Record) Complete() bool {
	return r.AccessToken != "" && r.RefreshToken != "" && r.UserID != ""
}

func (r Record) empty() bool {
	return r.AccessToken == "" && r.RefreshToken == "" && r.UserID == ""
}

func (r Record) pairs() [][2]string {
	return [][2]string{
		{KeyAccessToken, r.AccessToken},
		{KeyRefreshToken, r.RefreshToken},
		{KeyUserID, r.UserID},
	}
}

var recordKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUserID}

type Store interface {
	// Load returns ErrNoCredentials when nothing is stored and
	// ErrPartialCredentials when only some of the entries exist.
	Load(ctx context.Context) (Record, error)
	// Save writes all three entries in one transaction. An incomplete
	// record is rejected.
	Save(ctx context.Context, rec Record) error
	// Clear removes all three entries in one transaction.
	Clear(ctx context.Context) error

	// Get returns "" and false for a missing key.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

var ErrIncompleteRecord = errors.New("credential record is incomplete")

// assemble turns a key lookup into a Record and classifies what was found.
func assemble(vals map[string]string) (Record, error) {
	rec := Record{
		AccessToken:  vals[KeyAccessToken],
		RefreshToken: vals[KeyRefreshToken],
		UserID:       vals[KeyUserID],
	}
	switch {
	case rec.Complete():
		return rec, nil
	case rec.empty():
		return Record{}, ErrNoCredentials
	default:
		return rec, ErrPartialCredentials
	}
}
