package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campusarrival/arrival-portal/internal/config"
	"github.com/campusarrival/arrival-portal/internal/middleware"
	"github.com/campusarrival/arrival-portal/internal/model"
	"github.com/campusarrival/arrival-portal/internal/repository"
	"github.com/campusarrival/arrival-portal/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg        config.Config
	Students   *repository.StudentRepo
	Volunteers *repository.VolunteerRepo
	Tokens     *repository.RefreshTokenRepo
}

func NewAuthHandler(cfg config.Config, s *repository.StudentRepo, v *repository.VolunteerRepo, t *repository.RefreshTokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Students: s, Volunteers: v, Tokens: t}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RollNo   string `json:"roll_no"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string `json:"token"`
	Expires string `json:"expires"`
}
type accountPart struct {
	Subject string `json:"subject"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}
type authResp struct {
	Account accountPart `json:"account"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

// Login authenticates either a staff account (username + password
// against the volunteers table) or a student (roll number lookup).
// Both receive the same token pair shape; the JWT subject is the
// volunteer ID or the roll number respectively.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.RollNo = strings.ToUpper(strings.TrimSpace(req.RollNo))

	ctx, cancel := reqCtx(c)
	defer cancel()

	if req.Username != "" {
		if req.Password == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required"})
		}
		v, err := h.Volunteers.GetByUsername(ctx, req.Username)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !utils.VerifyPassword(v.PasswordHash, req.Password) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return h.issuePair(c, strconv.FormatUint(v.ID, 10), v.Username, v.Role, v.ID)
	}

	if req.RollNo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username or roll_no required"})
	}
	s, err := h.Students.GetByRollNo(ctx, req.RollNo)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown roll number"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return h.issuePair(c, s.IATRollNo, s.StudentName, model.RoleStudent, s.ID)
}

// issuePair mints an access/refresh pair and stores the refresh hash.
func (h *AuthHandler) issuePair(c echo.Context, subject, name, role string, accountID uint64) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, subject, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tokens.Store(ctx, accountID, role, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		Account: accountPart{Subject: subject, Name: name, Role: role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp.Format(timeLayout)},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp.Format(timeLayout)},
	})
}

// Refresh rotates a refresh token: validate by hash, revoke the old
// row, return a fresh pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	accountID, role, err := h.Tokens.Validate(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	switch role {
	case model.RoleStudent:
		// Student refresh rows store the students.id; resolve the roll
		// number back for the JWT subject.
		s, err := h.Students.GetByID(ctx, accountID)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
		}
		return h.issuePair(c, s.IATRollNo, s.StudentName, model.RoleStudent, s.ID)
	default:
		v, err := h.Volunteers.GetByID(ctx, accountID)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
		}
		return h.issuePair(c, strconv.FormatUint(v.ID, 10), v.Username, v.Role, v.ID)
	}
}

// Logout revokes either the supplied refresh token or, when the body
// is empty, every refresh token for the authenticated account.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, _, err := h.Tokens.Validate(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"revoked": 1})
	}

	role := middleware.Role(c)
	sub := middleware.Subject(c)
	if role == "" || sub == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token or bearer token required"})
	}

	var accountID uint64
	if role == model.RoleStudent {
		s, err := h.Students.GetByRollNo(ctx, sub)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown account"})
		}
		accountID = s.ID
	} else {
		accountID = middleware.VolunteerID(c)
	}
	if err := h.Tokens.RevokeAllForAccount(ctx, accountID, role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"revoked": "all"})
}

// Me returns the authenticated account's identity claims.
func (h *AuthHandler) Me(c echo.Context) error {
	role := middleware.Role(c)
	sub := middleware.Subject(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch role {
	case model.RoleStudent:
		s, err := h.Students.GetByRollNo(ctx, sub)
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusOK, accountPart{Subject: s.IATRollNo, Name: s.StudentName, Role: role})
	case model.RoleVolunteer, model.RoleAdmin:
		v, err := h.Volunteers.GetByID(ctx, middleware.VolunteerID(c))
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusOK, accountPart{Subject: sub, Name: v.Username, Role: v.Role})
	}
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown role"})
}
