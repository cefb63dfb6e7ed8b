package serviceclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUser_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice", username)
		assert.Equal(t, "secret", password)
		w.Header().Set("Set-Cookie", "auth=sess123; Path=/")
		json.NewEncoder(w).Encode(User{ID: "usr_1", Username: "alice", DisplayName: "Alice"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Cookies{})
	result, err := client.GetUser(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, AuthResultUser, result.Kind)
	assert.Equal(t, "usr_1", result.User.ID)
	assert.Equal(t, "sess123", result.Cookies.Auth)
}

func TestGetUser_EncodesReservedCharactersInBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice%40example.com", username)
		assert.Equal(t, "p%3Aa+ss%27word", password)
		w.Header().Set("Set-Cookie", "auth=sess123; Path=/")
		json.NewEncoder(w).Encode(User{ID: "usr_1", Username: "alice"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Cookies{})
	result, err := client.GetUser(context.Background(), "alice@example.com", "p:a ss'word")
	require.NoError(t, err)
	assert.Equal(t, AuthResultUser, result.Kind)
}

func TestGetUser_TwoFactorRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "auth=pending123; Path=/")
		json.NewEncoder(w).Encode(twoFactorEnvelope{RequiresTwoFactorAuth: []string{"totp", "emailotp"}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Cookies{})
	result, err := client.GetUser(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, AuthResultTwoFactorRequired, result.Kind)
	assert.Equal(t, TwoFactorTOTP, result.TwoFactorKind)
	assert.Equal(t, "pending123", result.Cookies.Auth)
}

func TestGetUser_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Cookies{})
	result, err := client.GetUser(context.Background(), "alice", "wrong")
	require.NoError(t, err)
	assert.Equal(t, AuthResultInvalidCredentials, result.Kind)
}

func TestGetUser_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Cookies{})
	_, err := client.GetUser(context.Background(), "alice", "secret")
	assert.Error(t, err)
}

func TestVerifyTwoFactor_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/twofactorauth/totp/verify", r.URL.Path)
		w.Header().Set("Set-Cookie", "twoFactorAuth=confirmed456; Path=/")
		json.NewEncoder(w).Encode(map[string]bool{"verified": true})
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Cookies{Auth: "pending123"})
	cookies, err := client.VerifyTwoFactor(context.Background(), TwoFactorTOTP, "123456")
	require.NoError(t, err)
	assert.Equal(t, "pending123", cookies.Auth)
	assert.Equal(t, "confirmed456", cookies.TwoFactorAuth)
}

func TestVerifyTwoFactor_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"verified": false})
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Cookies{Auth: "pending123"})
	_, err := client.VerifyTwoFactor(context.Background(), TwoFactorTOTP, "000000")
	assert.ErrorIs(t, err, errsx.ErrTwoFactorFailed)
}

func TestVerifyTwoFactor_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Cookies{Auth: "pending123"})
	_, err := client.VerifyTwoFactor(context.Background(), TwoFactorTOTP, "000000")
	assert.ErrorIs(t, err, errsx.ErrTwoFactorFailed)
}

func TestLogout(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "auth=sess123", r.Header.Get("Cookie"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Cookies{Auth: "sess123"})
	require.NoError(t, client.Logout(context.Background()))
	assert.True(t, called)
}
