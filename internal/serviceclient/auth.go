package serviceclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

// TwoFactorKind names the second factor the Service is asking for.
type TwoFactorKind string

const (
	TwoFactorEmailOTP TwoFactorKind = "emailotp"
	TwoFactorTOTP     TwoFactorKind = "totp"
)

// AuthResultKind tags the outcome of a GetUser call. Callers switch
// exhaustively on Kind rather than using a type assertion.
type AuthResultKind int

const (
	AuthResultUser AuthResultKind = iota
	AuthResultTwoFactorRequired
	AuthResultInvalidCredentials
)

// User is the authenticated account the Service returns once a session
// is fully established (no pending two-factor challenge).
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// AuthResult is the sum-type-shaped outcome of GetUser. Exactly one of
// User or TwoFactorKind is meaningful, selected by Kind:
//
//	AuthResultUser               -> User is populated
//	AuthResultTwoFactorRequired  -> TwoFactorKind and Cookies are populated
//	AuthResultInvalidCredentials -> neither is populated
type AuthResult struct {
	Kind          AuthResultKind
	User          User
	TwoFactorKind TwoFactorKind
	Cookies       Cookies
}

type twoFactorEnvelope struct {
	RequiresTwoFactorAuth []string `json:"requiresTwoFactorAuth"`
}

// GetUser exchanges a username/password pair for a session, per spec
// §4.4's login step. It issues HTTP Basic auth on the first request of
// a session; subsequent calls should use GetUserByCookies instead.
func (c *Client) GetUser(ctx context.Context, username, password string) (AuthResult, error) {
	resp, err := c.do(ctx, "GET", "/auth/user", nil, &basicCreds{username: username, password: password})
	if err != nil {
		return AuthResult{}, err
	}

	cookies := ParseSetCookie(resp.Header.Values("Set-Cookie"))

	switch resp.StatusCode {
	case 200:
		var challenge twoFactorEnvelope
		if err := json.Unmarshal(resp.Body, &challenge); err == nil && len(challenge.RequiresTwoFactorAuth) > 0 {
			return AuthResult{
				Kind:          AuthResultTwoFactorRequired,
				TwoFactorKind: classifyTwoFactor(challenge.RequiresTwoFactorAuth),
				Cookies:       cookies,
			}, nil
		}

		var user User
		if err := json.Unmarshal(resp.Body, &user); err != nil {
			return AuthResult{}, fmt.Errorf("decode user: %w", err)
		}
		return AuthResult{Kind: AuthResultUser, User: user, Cookies: cookies}, nil

	case 401:
		return AuthResult{Kind: AuthResultInvalidCredentials}, nil

	default:
		return AuthResult{}, asServiceError(resp)
	}
}

// classifyTwoFactor prefers TOTP when the Service offers a choice,
// since an authenticator code resolves without waiting on email
// delivery.
func classifyTwoFactor(offered []string) TwoFactorKind {
	for _, kind := range offered {
		if TwoFactorKind(kind) == TwoFactorTOTP {
			return TwoFactorTOTP
		}
	}
	if len(offered) > 0 {
		return TwoFactorKind(offered[0])
	}
	return TwoFactorEmailOTP
}

// VerifyTwoFactor submits the one-time code for the pending challenge
// kind and returns the cookie set the session should carry forward.
func (c *Client) VerifyTwoFactor(ctx context.Context, kind TwoFactorKind, code string) (Cookies, error) {
	path := fmt.Sprintf("/auth/twofactorauth/%s/verify", kind)
	resp, err := c.do(ctx, "POST", path, map[string]string{"code": code}, nil)
	if err != nil {
		return Cookies{}, err
	}

	cookies := ParseSetCookie(resp.Header.Values("Set-Cookie"))

	if !isSuccess(resp.StatusCode) {
		return Cookies{}, fmt.Errorf("%w: %s", errsx.ErrTwoFactorFailed, asServiceError(resp))
	}

	var verified struct {
		Verified bool `json:"verified"`
	}
	if err := json.Unmarshal(resp.Body, &verified); err == nil && !verified.Verified {
		return Cookies{}, errsx.ErrTwoFactorFailed
	}

	return c.cookies.Merge(cookies), nil
}

// GetUserByCookies confirms an existing session is still valid, used to
// decide whether stored credentials can skip interactive login.
func (c *Client) GetUserByCookies(ctx context.Context) (AuthResult, error) {
	resp, err := c.do(ctx, "GET", "/auth/user", nil, nil)
	if err != nil {
		return AuthResult{}, err
	}

	switch resp.StatusCode {
	case 200:
		var user User
		if err := json.Unmarshal(resp.Body, &user); err != nil {
			return AuthResult{}, fmt.Errorf("decode user: %w", err)
		}
		return AuthResult{Kind: AuthResultUser, User: user}, nil
	case 401:
		return AuthResult{Kind: AuthResultInvalidCredentials}, nil
	default:
		return AuthResult{}, asServiceError(resp)
	}
}

// Logout invalidates the session server-side. Failures are not fatal to
// a caller that is about to discard the session's cookies anyway.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, "PUT", "/logout", nil, nil)
	if err != nil {
		return err
	}
	if !isSuccess(resp.StatusCode) {
		return asServiceError(resp)
	}
	return nil
}
