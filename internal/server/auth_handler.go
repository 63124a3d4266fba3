package server

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/complaint-assistant/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userService  *UserService
	jwtService   *JWTService
	validator    *validator.Validate
	cookieName   string
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// secureCookie marks the session cookie Secure, for HTTPS deployments.
func NewAuthHandler(userService *UserService, jwtService *JWTService, cookieName string, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		jwtService:   jwtService,
		validator:    validator.New(),
		cookieName:   cookieName,
		secureCookie: secureCookie,
	}
}

// Register handles user registration requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		writeErr(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		h.logFailure("register", err)
		writeErr(w, err)
		return
	}

	h.issueSession(w, http.StatusCreated, user)
}

// Login handles user login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		writeErr(w, err)
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		h.logFailure("login", err)
		writeErr(w, err)
		return
	}

	h.issueSession(w, http.StatusOK, user)
}

// Logout clears the session cookie. Bearer tokens stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, status int, user *types.User) {
	token, err := h.jwtService.GenerateToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	ttl := h.jwtService.TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, status, types.LoginResponse{
		User:  user,
		Token: token,
	})
}

func (h *AuthHandler) logFailure(action string, err error) {
	if HTTPStatus(err) == http.StatusInternalServerError {
		logError(action, err)
	}
}
