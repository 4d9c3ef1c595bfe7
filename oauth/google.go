package oauth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"tastebase/auth"
	"tastebase/models"
	"tastebase/tokens"
	"tastebase/utils"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleIssuer = "https://accounts.google.com"

// Identity is the subset of the provider's id_token claims the catalog
// uses.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// IdentityVerifier checks an id_token's signature, issuer and audience
// before surfacing any claim. A plain decode is not acceptable here; an
// unverified token is a spoofing vector.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Identity, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func (v *oidcVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	token, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}
	var id Identity
	if err := token.Claims(&id); err != nil {
		return nil, err
	}
	return &id, nil
}

// NewGoogleVerifier discovers Google's signing keys and returns a
// verifier bound to the client id.
func NewGoogleVerifier(ctx context.Context, clientID string) (IdentityVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}
	return &oidcVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// Handlers drives the Google authorization-code handshake. No state is
// kept between Start and Callback; the provider carries it through the
// code.
type Handlers struct {
	Config   *oauth2.Config
	Verifier IdentityVerifier
	Users    auth.UserStore
	Tokens   *tokens.Service
}

func NewHandlers(clientID, clientSecret, redirectURI string, verifier IdentityVerifier, users auth.UserStore, svc *tokens.Service) *Handlers {
	return &Handlers{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		Verifier: verifier,
		Users:    users,
		Tokens:   svc,
	}
}

func (h *Handlers) configured() bool {
	return h.Config.ClientID != "" && h.Config.RedirectURL != ""
}

// Start handles GET /auth/google: a 302 to the provider's authorization
// URL.
func (h *Handlers) Start(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !h.configured() {
		utils.RespondWithError(w, http.StatusInternalServerError, "Google OAuth is not configured on the server.")
		return
	}

	url := h.Config.AuthCodeURL("",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	http.Redirect(w, r, url, http.StatusFound)
}

// Callback handles GET /auth/google/callback: exchanges the code,
// verifies the returned id_token, finds or creates the local user and
// issues a session token with the same claims shape as local login.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !h.configured() {
		utils.RespondWithError(w, http.StatusInternalServerError, "Google OAuth is not configured on the server.")
		return
	}
	// Configured but no verifier means provider discovery failed at
	// startup; without it no id_token can be checked.
	if h.Verifier == nil {
		utils.RespondWithError(w, http.StatusBadGateway, "Google identity service is unavailable.")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		utils.RespondWithError(w, http.StatusBadRequest, `Missing "code" query parameter.`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	tok, err := h.Config.Exchange(ctx, code)
	if err != nil {
		log.Printf("oauth: code exchange: %v", err)
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to exchange authorization code.")
		return
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		utils.RespondWithError(w, http.StatusBadGateway, "No id_token returned from Google.")
		return
	}

	id, err := h.Verifier.Verify(ctx, rawIDToken)
	if err != nil {
		log.Printf("oauth: id_token verification: %v", err)
		utils.RespondWithError(w, http.StatusBadGateway, "Unable to verify Google identity.")
		return
	}
	if id.Email == "" {
		utils.RespondWithError(w, http.StatusInternalServerError, "Unable to read Google user information.")
		return
	}

	user, err := h.findOrCreateUser(ctx, id)
	if err != nil {
		log.Printf("oauth: user resolve: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	token, err := h.Tokens.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		log.Printf("oauth: token issue: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message":  "Login successful",
		"token":    token,
		"username": user.Name,
	})
}

func (h *Handlers) findOrCreateUser(ctx context.Context, id *Identity) (*models.User, error) {
	user, err := h.Users.FindUserByEmail(ctx, id.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, auth.ErrNotFound) {
		return nil, err
	}

	name := id.Name
	if name == "" {
		name = strings.SplitN(id.Email, "@", 2)[0]
	}
	user = &models.User{
		ID:        auth.UserID(id.Email),
		Name:      name,
		Email:     id.Email,
		Provider:  models.ProviderGoogle,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Users.InsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
