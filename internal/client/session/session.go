// Package session keeps the CLI's authentication state: the issued token
// pair and a snapshot of the logged-in user. The state lives behind a Store
// so the API client and the CLI never touch the file directly.
package session

import "github.com/guardget/guardget/internal/client/models"

// Session is the persisted authentication state.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user,omitempty"`
}

// LoggedIn reports whether the session carries a usable access token.
func (s *Session) LoggedIn() bool {
	return s != nil && s.AccessToken != ""
}

// Store reads and writes the current session. Load returns an empty session,
// not an error, when none has been saved yet. Clear wipes both the tokens
// and the cached user.
type Store interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}
