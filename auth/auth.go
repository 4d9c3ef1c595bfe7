package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"tastebase/models"
	"tastebase/tokens"
	"tastebase/utils"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"
)

// ErrNotFound is returned by UserStore implementations when no user
// matches. Handlers fold it into the generic 401 so callers cannot
// probe which emails exist.
var ErrNotFound = errors.New("user not found")

// UserStore is the slice of the document store the auth flows need.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUser(ctx context.Context, user *models.User) error
}

type Handlers struct {
	Users  UserStore
	Tokens *tokens.Service
}

func NewHandlers(users UserStore, svc *tokens.Service) *Handlers {
	return &Handlers{Users: users, Tokens: svc}
}

// Login handles POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.FindUserByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("login: user lookup: %v", err)
		}
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	// Accounts created through Google carry no hash; password login for
	// them fails the same way as a wrong password.
	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	token, err := h.Tokens.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		log.Printf("login: token issue: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message":  "Login successful",
		"token":    token,
		"username": user.Name,
	})
}

// Register handles POST /register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Name == "" || input.Email == "" || input.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Please provide name, email, and password.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err := h.Users.FindUserByEmail(ctx, input.Email)
	if err == nil {
		utils.RespondWithError(w, http.StatusConflict, "User with this email already exists.")
		return
	}
	if !errors.Is(err, ErrNotFound) {
		log.Printf("register: user lookup: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("register: hash: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user := &models.User{
		ID:           UserID(input.Email),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashed),
		Provider:     models.ProviderLocal,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Users.InsertUser(ctx, user); err != nil {
		log.Printf("register: insert: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "User registered successfully!",
	})
}

// UserID derives the stable document key from an email by stripping
// every non-alphanumeric character.
func UserID(email string) string {
	var b strings.Builder
	for _, r := range email {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
