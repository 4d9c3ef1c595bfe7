package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tastebase/auth"
	"tastebase/models"
	"tastebase/tokens"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeVerifier struct {
	id  *Identity
	err error
}

func (f *fakeVerifier) Verify(context.Context, string) (*Identity, error) {
	return f.id, f.err
}

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, auth.ErrNotFound
}

func (f *fakeUserStore) InsertUser(_ context.Context, user *models.User) error {
	f.users[user.Email] = user
	return nil
}

// tokenEndpoint stands in for the provider, counting exchange attempts.
func tokenEndpoint(t *testing.T, status int, body map[string]any) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestHandlers(verifier IdentityVerifier, store auth.UserStore, tokenURL string) (*Handlers, *tokens.Service) {
	svc := tokens.NewService([]byte("test-secret"), time.Hour)
	h := NewHandlers("client-id", "client-secret", "https://app.example.com/auth/google/callback",
		verifier, store, svc)
	if tokenURL != "" {
		h.Config.Endpoint = oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams}
	}
	return h, svc
}

func TestStartRedirects(t *testing.T) {
	h, _ := newTestHandlers(&fakeVerifier{}, newFakeUserStore(), "")

	w := httptest.NewRecorder()
	h.Start(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil), nil)

	require.Equal(t, http.StatusFound, w.Code)
	loc := w.Header().Get("Location")
	assert.Contains(t, loc, "accounts.google.com")
	assert.Contains(t, loc, "response_type=code")
	assert.Contains(t, loc, "client_id=client-id")
	assert.Contains(t, loc, "access_type=offline")
	assert.Contains(t, loc, "prompt=consent")
	assert.Contains(t, loc, "scope=openid+email+profile")
}

func TestStartMisconfigured(t *testing.T) {
	svc := tokens.NewService([]byte("test-secret"), time.Hour)
	h := NewHandlers("", "", "", nil, newFakeUserStore(), svc)

	w := httptest.NewRecorder()
	h.Start(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCallbackVerifierUnavailable(t *testing.T) {
	// Configured client but failed provider discovery at startup: the
	// callback reports a provider error without contacting Google.
	srv, hits := tokenEndpoint(t, http.StatusOK, nil)
	h, _ := newTestHandlers(nil, newFakeUserStore(), srv.URL)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc", nil), nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, int32(0), hits.Load())
}

func TestCallbackMissingCodeSkipsProvider(t *testing.T) {
	srv, hits := tokenEndpoint(t, http.StatusOK, nil)
	h, _ := newTestHandlers(&fakeVerifier{}, newFakeUserStore(), srv.URL)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int32(0), hits.Load(), "provider must not be contacted without a code")
}

func TestCallbackExchangeFailure(t *testing.T) {
	srv, hits := tokenEndpoint(t, http.StatusInternalServerError, map[string]any{"error": "server_error"})
	h, _ := newTestHandlers(&fakeVerifier{}, newFakeUserStore(), srv.URL)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc", nil), nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCallbackMissingIDToken(t *testing.T) {
	srv, _ := tokenEndpoint(t, http.StatusOK, map[string]any{
		"access_token": "at", "token_type": "Bearer",
	})
	h, _ := newTestHandlers(&fakeVerifier{}, newFakeUserStore(), srv.URL)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc", nil), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCallbackVerificationFailure(t *testing.T) {
	srv, _ := tokenEndpoint(t, http.StatusOK, map[string]any{
		"access_token": "at", "token_type": "Bearer", "id_token": "spoofed",
	})
	h, _ := newTestHandlers(&fakeVerifier{err: errors.New("bad signature")}, newFakeUserStore(), srv.URL)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc", nil), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code, "unverifiable id_token must never yield a session")
}

func TestCallbackNoEmailClaim(t *testing.T) {
	srv, _ := tokenEndpoint(t, http.StatusOK, map[string]any{
		"access_token": "at", "token_type": "Bearer", "id_token": "verified",
	})
	h, _ := newTestHandlers(&fakeVerifier{id: &Identity{Name: "Nameless"}}, newFakeUserStore(), srv.URL)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc", nil), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCallbackCreatesUserAndIssuesSession(t *testing.T) {
	srv, _ := tokenEndpoint(t, http.StatusOK, map[string]any{
		"access_token": "at", "token_type": "Bearer", "id_token": "verified",
	})
	store := newFakeUserStore()
	h, svc := newTestHandlers(&fakeVerifier{id: &Identity{Email: "jane@example.com", Name: "Jane"}}, store, srv.URL)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)

	user := store.users["jane@example.com"]
	require.NotNil(t, user)
	assert.Equal(t, "janeexamplecom", user.ID)
	assert.Equal(t, models.ProviderGoogle, user.Provider)
	assert.Empty(t, user.PasswordHash)

	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Jane", resp.Username)

	// Same claims shape as a local login.
	claims, err := svc.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "janeexamplecom", claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestCallbackExistingUserNotDuplicated(t *testing.T) {
	srv, _ := tokenEndpoint(t, http.StatusOK, map[string]any{
		"access_token": "at", "token_type": "Bearer", "id_token": "verified",
	})
	store := newFakeUserStore()
	store.users["jane@example.com"] = &models.User{
		ID: "janeexamplecom", Name: "Jane", Email: "jane@example.com",
		Provider: models.ProviderLocal, PasswordHash: "existing-hash",
	}
	h, _ := newTestHandlers(&fakeVerifier{id: &Identity{Email: "jane@example.com", Name: "Jane G"}}, store, srv.URL)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The local account is reused untouched.
	assert.Len(t, store.users, 1)
	assert.Equal(t, "existing-hash", store.users["jane@example.com"].PasswordHash)
}

func TestCallbackNameDefaultsToLocalPart(t *testing.T) {
	srv, _ := tokenEndpoint(t, http.StatusOK, map[string]any{
		"access_token": "at", "token_type": "Bearer", "id_token": "verified",
	})
	store := newFakeUserStore()
	h, _ := newTestHandlers(&fakeVerifier{id: &Identity{Email: "jane@example.com"}}, store, srv.URL)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jane", store.users["jane@example.com"].Name)
}
