package webapi

import (
	logger "log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/routehaul/hosplan/business/auth"
	"github.com/routehaul/hosplan/business/data/identity"
	"github.com/routehaul/hosplan/foundation/apperror"
)

//minPasswordLength is the shortest password registration accepts.
const minPasswordLength = 8

//authHandler serves the account endpoints.
type authHandler struct {
	log    *logger.Logger
	store  IdentityStore
	tokens *auth.Tokens
}

func makeAuthHandler(cfg Config) *authHandler {
	return &authHandler{
		log:    cfg.Log,
		store:  cfg.IdentityStore,
		tokens: cfg.Tokens,
	}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Name            string `json:"name"`
	CompanyName     string `json:"company_name"`
	TruckNumber     string `json:"truck_number"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type sessionResponse struct {
	User   *identity.User `json:"user"`
	Tokens tokenPair      `json:"tokens"`
}

//register creates an account and signs the new user in.
func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(h.log, w, err)
		return
	}
	if err := validateRegisterRequest(req); err != nil {
		respondError(h.log, w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	user := &identity.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		CompanyName:  req.CompanyName,
		TruckNumber:  req.TruckNumber,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		respondError(h.log, w, err)
		return
	}

	session, err := h.openSession(r, user)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	respond(h.log, w, http.StatusCreated, session)
}

func validateRegisterRequest(req registerRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return apperror.New(apperror.Validation, "a valid email is required").
			WithDetail("field", "email")
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperror.New(apperror.Validation, "name is required").
			WithDetail("field", "name")
	}
	if len(req.Password) < minPasswordLength {
		return apperror.Newf(apperror.Validation, "password must be at least %d characters",
			minPasswordLength).WithDetail("field", "password")
	}
	if req.Password != req.PasswordConfirm {
		return apperror.New(apperror.Validation, "passwords do not match").
			WithDetail("field", "password_confirm")
	}
	return nil
}

//login checks credentials and opens a session. Unknown email and wrong
//password get the same answer.
func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(h.log, w, err)
		return
	}

	user, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			respondError(h.log, w, apperror.New(apperror.Unauthenticated, "invalid credentials"))
			return
		}
		respondError(h.log, w, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(h.log, w, apperror.New(apperror.Unauthenticated, "invalid credentials"))
		return
	}

	session, err := h.openSession(r, user)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	respond(h.log, w, http.StatusOK, session)
}

//refresh rotates a refresh token: the presented token is revoked and a fresh
//pair is issued. A revoked or expired token is rejected.
func (h *authHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(h.log, w, err)
		return
	}

	userID, tokenID, err := h.tokens.VerifyRefresh(req.Refresh)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	record, err := h.store.RefreshTokenByID(r.Context(), tokenID)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	if record.Revoked || time.Now().After(record.ExpiresAt) {
		respondError(h.log, w, apperror.New(apperror.Unauthenticated, "refresh token is no longer valid"))
		return
	}

	user, err := h.store.UserByID(r.Context(), userID)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	if err := h.store.RevokeRefreshToken(r.Context(), tokenID); err != nil {
		respondError(h.log, w, err)
		return
	}

	session, err := h.openSession(r, user)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	respond(h.log, w, http.StatusOK, tokenPair{Access: session.Tokens.Access, Refresh: session.Tokens.Refresh})
}

//logout blacklists the presented refresh token.
func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(h.log, w, err)
		return
	}
	_, tokenID, err := h.tokens.VerifyRefresh(req.Refresh)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	if err := h.store.RevokeRefreshToken(r.Context(), tokenID); err != nil {
		respondError(h.log, w, err)
		return
	}
	respond(h.log, w, http.StatusNoContent, nil)
}

//me returns the authenticated user's profile.
func (h *authHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		respondError(h.log, w, apperror.New(apperror.Unauthenticated, "missing access token"))
		return
	}
	user, err := h.store.UserByID(r.Context(), userID)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	respond(h.log, w, http.StatusOK, user)
}

//openSession issues a token pair and records the refresh token for rotation.
func (h *authHandler) openSession(r *http.Request, user *identity.User) (*sessionResponse, error) {
	pair, err := h.tokens.Issue(user.ID, user.Email, user.Name, time.Now())
	if err != nil {
		return nil, err
	}
	record := identity.RefreshToken{
		ID:        pair.RefreshID,
		UserID:    user.ID,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.SaveRefreshToken(r.Context(), record); err != nil {
		return nil, err
	}
	return &sessionResponse{
		User:   user,
		Tokens: tokenPair{Access: pair.Access, Refresh: pair.Refresh},
	}, nil
}
