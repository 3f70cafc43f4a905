package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"daily-diet/middleware"
	"daily-diet/models"
	"daily-diet/store"
	"daily-diet/telemetry"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// invalidCredentials is shared by every failed login so the response does not
// reveal whether the email exists.
const invalidCredentials = "Invalid email or password"

// bcrypt rejects passwords longer than this many bytes.
const maxPasswordBytes = 72

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
	TTL() time.Duration
}

type UserOptions struct {
	BcryptCost   int
	CookieSecure bool
}

type UserHandler struct {
	users  UserRepository
	tokens TokenIssuer
	logger *slog.Logger
	opts   UserOptions
	// compared against when the email is unknown to keep login timing flat
	dummyHash []byte
}

func NewUserHandler(users UserRepository, tokens TokenIssuer, logger *slog.Logger, opts UserOptions) (*UserHandler, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &UserHandler{
		users:     users,
		tokens:    tokens,
		logger:    logger,
		opts:      opts,
		dummyHash: dummy,
	}, nil
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Age      *int   `json:"age" validate:"required,gte=0,lte=150"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	if len(req.Password) > maxPasswordBytes {
		writeRequestError(w, &requestError{
			msg:     "Invalid request body",
			details: []string{fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes)},
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.opts.BcryptCost)
	if err != nil {
		serverError(w, r, h.logger, "hash password", err)
		return
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		Age:          *req.Age,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		serverError(w, r, h.logger, "create user", err)
		return
	}

	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User created"})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		telemetry.RecordLogin(telemetry.LoginError)
		serverError(w, r, h.logger, "find user", err)
		return
	}

	hash := h.dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil || user == nil {
		telemetry.RecordLogin(telemetry.LoginFailure)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": invalidCredentials})
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		telemetry.RecordLogin(telemetry.LoginError)
		serverError(w, r, h.logger, "issue session", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	telemetry.RecordLogin(telemetry.LoginSuccess)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
}

// Logout expires the session cookie. Tokens are stateless, so a copy kept
// elsewhere stays valid until it expires.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
