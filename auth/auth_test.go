package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tastebase/models"
	"tastebase/tokens"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	users     map[string]*models.User
	insertErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (f *fakeUserStore) InsertUser(_ context.Context, user *models.User) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.users[user.Email] = user
	return nil
}

func newTestHandlers() (*Handlers, *fakeUserStore, *tokens.Service) {
	store := newFakeUserStore()
	svc := tokens.NewService([]byte("test-secret"), time.Hour)
	return NewHandlers(store, svc), store, svc
}

func TestRegisterThenLogin(t *testing.T) {
	h, store, svc := newTestHandlers()

	w := httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader(`{"name":"Jane","email":"jane@example.com","password":"hunter22"}`)), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	user := store.users["jane@example.com"]
	require.NotNil(t, user)
	assert.Equal(t, "janeexamplecom", user.ID)
	assert.Equal(t, models.ProviderLocal, user.Provider)

	// The stored credential is a hash, never the plaintext.
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))

	w = httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"jane@example.com","password":"hunter22"}`)), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message  string `json:"message"`
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Jane", resp.Username)

	claims, err := svc.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "janeexamplecom", claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _, _ := newTestHandlers()
	body := `{"name":"Jane","email":"jane@example.com","password":"hunter22"}`

	w := httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body)), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body)), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	h, _, _ := newTestHandlers()

	for _, body := range []string{
		`{"email":"jane@example.com","password":"hunter22"}`,
		`{"name":"Jane","password":"hunter22"}`,
		`{"name":"Jane","email":"jane@example.com"}`,
	} {
		w := httptest.NewRecorder()
		h.Register(w, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body)), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	h, store, _ := newTestHandlers()

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)
	require.NoError(t, err)
	store.users["jane@example.com"] = &models.User{
		ID: "janeexamplecom", Name: "Jane", Email: "jane@example.com",
		PasswordHash: string(hashed), Provider: models.ProviderLocal,
	}
	// Google-only account: no password hash at all.
	store.users["bob@example.com"] = &models.User{
		ID: "bobexamplecom", Name: "Bob", Email: "bob@example.com",
		Provider: models.ProviderGoogle,
	}

	cases := map[string]string{
		"unknown email":      `{"email":"nobody@example.com","password":"whatever"}`,
		"wrong password":     `{"email":"jane@example.com","password":"incorrect"}`,
		"oauth-only account": `{"email":"bob@example.com","password":"anything"}`,
	}
	for name, body := range cases {
		w := httptest.NewRecorder()
		h.Login(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body)), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.JSONEq(t, `{"error":"Invalid email or password."}`, w.Body.String(), name)
	}
}

func TestUserID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "janeexamplecom", UserID("jane@example.com"))
	assert.Equal(t, "jd42mailcouk", UserID("j.d+42@mail.co.uk"))
	assert.Equal(t, "", UserID("@.+-"))
}
