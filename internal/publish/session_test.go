package publish

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kavex/Third3D-uploader/internal/config"
	"github.com/Kavex/Third3D-uploader/internal/errsx"
	"github.com/Kavex/Third3D-uploader/internal/logging"
	"github.com/Kavex/Third3D-uploader/internal/secretstore"
	"github.com/Kavex/Third3D-uploader/internal/serviceclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func newTestSessionClient(t *testing.T, srv *httptest.Server) *serviceclient.Client {
	t.Helper()
	cfg := &config.Runtime{BaseURL: srv.URL, ControlPlaneTimeout: 5 * time.Second}
	return serviceclient.New(cfg, serviceclient.Cookies{})
}

func TestSession_Login_DirectSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "auth=sess1")
		json.NewEncoder(w).Encode(serviceclient.User{ID: "usr_1"})
	}))
	defer srv.Close()

	session := NewSession(nil)
	outcome, client, err := session.Login(context.Background(), newTestSessionClient(t, srv), "alice", "secret")
	require.NoError(t, err)
	assert.True(t, outcome.Authenticated)
	assert.Equal(t, SessionAuthenticated, session.State)
	assert.Equal(t, "sess1", client.Cookies().Auth)
}

func TestSession_Login_TwoFactorThenSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/user":
			w.Header().Set("Set-Cookie", "auth=pending1")
			json.NewEncoder(w).Encode(map[string][]string{"requiresTwoFactorAuth": {"totp"}})
		case "/auth/twofactorauth/totp/verify":
			w.Header().Set("Set-Cookie", "twoFactorAuth=confirmed1")
			json.NewEncoder(w).Encode(map[string]bool{"verified": true})
		}
	}))
	defer srv.Close()

	session := NewSession(nil)
	client := newTestSessionClient(t, srv)
	outcome, client, err := session.Login(context.Background(), client, "alice", "secret")
	require.NoError(t, err)
	assert.True(t, outcome.TwoFactorRequired)
	assert.Equal(t, SessionAwaitingTwoFactor, session.State)

	client, err = session.SubmitTwoFactor(context.Background(), client, "123456")
	require.NoError(t, err)
	assert.Equal(t, SessionAuthenticated, session.State)
	assert.Equal(t, "pending1", client.Cookies().Auth)
	assert.Equal(t, "confirmed1", client.Cookies().TwoFactorAuth)
}

func TestSession_Login_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	session := NewSession(nil)
	_, _, err := session.Login(context.Background(), newTestSessionClient(t, srv), "alice", "wrong")
	assert.ErrorIs(t, err, errsx.ErrInvalidCredentials)
	assert.Equal(t, SessionAuthenticationFailed, session.State)
}

func TestSession_SubmitTwoFactor_WithoutPendingChallenge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	session := NewSession(nil)
	_, err := session.SubmitTwoFactor(context.Background(), newTestSessionClient(t, srv), "123456")
	assert.ErrorIs(t, err, errsx.ErrSessionExpired)
}

func TestSession_Login_PersistsCredentialsOnSuccess(t *testing.T) {
	keyring.MockInit()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "auth=sess1")
		json.NewEncoder(w).Encode(serviceclient.User{ID: "usr_1"})
	}))
	defer srv.Close()

	store := secretstore.NewCredentialStore("ThirdUploader")
	session := NewSession(store)
	_, _, err := session.Login(context.Background(), newTestSessionClient(t, srv), "alice", "secret")
	require.NoError(t, err)

	cookies, ok, err := store.Load("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sess1", cookies.Auth)
}

func TestSession_Logout_ClearsStoredCredentials(t *testing.T) {
	keyring.MockInit()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "auth=sess1")
		json.NewEncoder(w).Encode(serviceclient.User{ID: "usr_1"})
	}))
	defer srv.Close()

	store := secretstore.NewCredentialStore("ThirdUploader")
	session := NewSession(store)
	client := newTestSessionClient(t, srv)
	_, client, err := session.Login(context.Background(), client, "alice", "secret")
	require.NoError(t, err)

	session.Logout(context.Background(), client, logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, ok, err := store.Load("alice")
	require.NoError(t, err)
	assert.False(t, ok)
}
