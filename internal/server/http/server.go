// Package http serves the account API: registration, email validation,
// login and password reset.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/common"
	"github.com/dmitrijs2005/wordrush/internal/logging"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/dmitrijs2005/wordrush/internal/server/services"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Identity is the part of services.IdentityService the API needs.
type Identity interface {
	Register(ctx context.Context, in services.RegisterInput) error
	ValidateEmail(ctx context.Context, token, email string) error
	Login(ctx context.Context, email, password string) (services.LoginResult, error)
	CreateResetToken(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, newPassword, token string) error
	Authenticate(token string) (string, error)
	User(ctx context.Context, email string) (*models.User, error)
}

type Server struct {
	identity   Identity
	logger     logging.Logger
	middleware []mux.MiddlewareFunc
}

// NewServer builds the API. Middleware runs for every matched route, in
// order.
func NewServer(identity Identity, l logging.Logger, middleware ...mux.MiddlewareFunc) *Server {
	return &Server{identity: identity, logger: l.With("module", "http_server"), middleware: middleware}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.middleware...)

	users := r.PathPrefix("/users").Subrouter()
	users.HandleFunc("/register", s.register).Methods(http.MethodPost)
	users.HandleFunc("/login", s.login).Methods(http.MethodPost)
	users.HandleFunc("/verify", s.verify).Methods(http.MethodGet)
	users.HandleFunc("/password/reset-token", s.createResetToken).Methods(http.MethodPost)
	users.HandleFunc("/password/reset", s.resetPassword).Methods(http.MethodPost)
	users.Handle("/me", s.authenticate(http.HandlerFunc(s.me))).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, message{Message: "ok"})
	}).Methods(http.MethodGet)

	return r
}

type message struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Success     bool       `json:"success"`
	AccessToken string     `json:"accessToken,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

type userResponse struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	LastName  string `json:"lastName"`
	Validated bool   `json:"validated"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalid("body", "is not valid JSON")
	}
	return nil
}

// writeError maps service errors to status codes. Anything unknown is
// logged and reported as a bare 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, message{Message: err.Error()})
	case errors.Is(err, common.ErrorAlreadyRegistered):
		writeJSON(w, http.StatusConflict, message{Message: "user already registered"})
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		writeJSON(w, http.StatusBadRequest, message{Message: "invalid token"})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, message{Message: "user not found"})
	default:
		logging.LogError(r.Context(), s.logger, "request failed", err)
		writeJSON(w, http.StatusInternalServerError, message{Message: "internal error"})
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	err := s.identity.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "email", req.Email)
	writeJSON(w, http.StatusCreated, message{Message: "validation email sent"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusUnauthorized, loginResponse{})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Success: true, AccessToken: res.AccessToken, ExpiresAt: &res.ExpiresAt})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token, email := q.Get("token"), q.Get("email")
	if err := validateEmail(email); err != nil {
		s.writeError(w, r, err)
		return
	}
	if token == "" {
		s.writeError(w, r, invalid("token", "is required"))
		return
	}

	if err := s.identity.ValidateEmail(r.Context(), token, email); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, message{Message: "email validated"})
}

func (s *Server) createResetToken(w http.ResponseWriter, r *http.Request) {
	var req resetTokenRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.identity.CreateResetToken(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, message{Message: "reset code sent"})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.identity.ResetPassword(r.Context(), req.Email, req.Password, req.Token); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, message{Message: "password updated"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	email, _ := EmailFromContext(r.Context())

	user, err := s.identity.User(r.Context(), email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		Email:     user.Email,
		Name:      user.Name,
		LastName:  user.LastName,
		Validated: user.Validated,
	})
}

type ctxKey string

const emailKey ctxKey = "email"

// EmailFromContext returns the authenticated email set by the access token
// middleware.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}

func accessToken(r *http.Request) string {
	if t := r.Header.Get(common.AccessTokenHTTPHeader); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := accessToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, message{Message: "missing access token"})
			return
		}

		email, err := s.identity.Authenticate(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, message{Message: "invalid access token"})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), emailKey, email)))
	})
}
