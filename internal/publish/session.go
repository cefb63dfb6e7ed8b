package publish

import (
	"context"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
	"github.com/Kavex/Third3D-uploader/internal/logging"
	"github.com/Kavex/Third3D-uploader/internal/secretstore"
	"github.com/Kavex/Third3D-uploader/internal/serviceclient"
)

// SessionState names a state of the login state machine documented in
// spec §4.6: Anonymous -> AwaitingCredentials -> (AwaitingTwoFactor) ->
// Authenticated, with AuthenticationFailed as a sink returning the
// caller to AwaitingCredentials.
type SessionState int

const (
	SessionAnonymous SessionState = iota
	SessionAwaitingCredentials
	SessionAwaitingTwoFactor
	SessionAuthenticated
	SessionAuthenticationFailed
)

// Session tracks one login attempt's state and accumulated cookies. It
// is not safe for concurrent use by multiple goroutines.
type Session struct {
	State         SessionState
	Username      string
	Cookies       serviceclient.Cookies
	TwoFactorKind serviceclient.TwoFactorKind

	// Credentials, if set, receives the cookie pair the moment the
	// session reaches SessionAuthenticated and is cleared on Logout,
	// per spec §6's "credential store is written once, with both
	// cookies." Nil disables persistence (used by tests).
	Credentials *secretstore.CredentialStore
}

// NewSession returns a fresh, anonymous session. store may be nil to
// disable credential persistence.
func NewSession(store *secretstore.CredentialStore) *Session {
	return &Session{State: SessionAnonymous, Credentials: store}
}

// LoginOutcome reports which branch a Login call took.
type LoginOutcome struct {
	Authenticated     bool
	TwoFactorRequired bool
	TwoFactorKind     serviceclient.TwoFactorKind
	User              serviceclient.User
}

// Login submits credentials. On success it returns a Client carrying
// the session cookies obtained so far; the caller should use that
// Client (not the one passed in) for all subsequent calls, including
// SubmitTwoFactor.
func (s *Session) Login(ctx context.Context, client *serviceclient.Client, username, password string) (LoginOutcome, *serviceclient.Client, error) {
	s.State = SessionAwaitingCredentials
	s.Username = username

	result, err := client.GetUser(ctx, username, password)
	if err != nil {
		s.State = SessionAuthenticationFailed
		return LoginOutcome{}, nil, err
	}

	switch result.Kind {
	case serviceclient.AuthResultUser:
		s.Cookies = s.Cookies.Merge(result.Cookies)
		s.State = SessionAuthenticated
		if err := s.persist(); err != nil {
			return LoginOutcome{}, nil, err
		}
		return LoginOutcome{Authenticated: true, User: result.User}, client.WithCookies(s.Cookies), nil

	case serviceclient.AuthResultTwoFactorRequired:
		s.Cookies = s.Cookies.Merge(result.Cookies)
		s.TwoFactorKind = result.TwoFactorKind
		s.State = SessionAwaitingTwoFactor
		return LoginOutcome{TwoFactorRequired: true, TwoFactorKind: result.TwoFactorKind}, client.WithCookies(s.Cookies), nil

	case serviceclient.AuthResultInvalidCredentials:
		s.State = SessionAuthenticationFailed
		return LoginOutcome{}, nil, errsx.ErrInvalidCredentials

	default:
		s.State = SessionAuthenticationFailed
		return LoginOutcome{}, nil, errsx.ErrInvalidCredentials
	}
}

// SubmitTwoFactor completes a pending two-factor challenge. It must be
// called after a Login that returned TwoFactorRequired.
func (s *Session) SubmitTwoFactor(ctx context.Context, client *serviceclient.Client, code string) (*serviceclient.Client, error) {
	if s.State != SessionAwaitingTwoFactor {
		return nil, errsx.ErrSessionExpired
	}

	cookies, err := client.VerifyTwoFactor(ctx, s.TwoFactorKind, code)
	if err != nil {
		s.State = SessionAuthenticationFailed
		return nil, err
	}

	s.Cookies = s.Cookies.Merge(cookies)
	s.State = SessionAuthenticated
	if err := s.persist(); err != nil {
		return nil, err
	}
	return client.WithCookies(s.Cookies), nil
}

// persist writes the current cookie pair to the credential store, if
// one is configured.
func (s *Session) persist() error {
	if s.Credentials == nil {
		return nil
	}
	return s.Credentials.Save(s.Username, s.Cookies)
}

// Logout best-effort invalidates the session server-side and resets
// local state to Anonymous regardless of outcome, per spec §4.6's
// "cancellation at any point logs out the partial auth cookie
// best-effort."
func (s *Session) Logout(ctx context.Context, client *serviceclient.Client, logger logging.Logger) {
	if s.State == SessionAnonymous {
		return
	}
	if err := client.Logout(ctx); err != nil {
		logger.Warn(ctx, "logout failed", "error", err)
	}
	if s.Credentials != nil {
		if err := s.Credentials.Clear(s.Username); err != nil {
			logger.Warn(ctx, "clearing stored credentials failed", "error", err)
		}
	}
	s.State = SessionAnonymous
	s.Cookies = serviceclient.Cookies{}
}
