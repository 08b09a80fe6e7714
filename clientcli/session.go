package clientcli

import (
	"net/http"

	"github.com/closureme/closureme"
)

// Session is the credential obtained at login. It is passed explicitly to
// every authenticated operation; the client never stores it.
type Session struct {
	Token string         `json:"token"`
	User  closureme.User `json:"user"`
}

// NewSession wraps an existing bearer token, for example one read from
// CLOSUREME_TOKEN.
func NewSession(token string) *Session {
	return &Session{Token: token}
}

// Valid reports whether the session carries a token.
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

func (s *Session) authorize(req *http.Request) error {
	if !s.Valid() {
		return closureme.ErrNotLoggedIn
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	return nil
}
