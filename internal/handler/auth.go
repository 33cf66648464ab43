package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-review-api/internal/service"
)

// AuthHandler serves registration, sessions and password management.
type AuthHandler struct {
	Svc *service.AuthService
	Log *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Log: log}
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	Refresh string `json:"refresh" validate:"required"`
}

type emailReq struct {
	Email string `json:"email" validate:"required"`
}

// bindValid binds the body into v and runs the registered validator.
// On failure the response has been written and done is true.
func (h *AuthHandler) bindValid(c echo.Context, v interface{}) (done bool, err error) {
	if err := c.Bind(v); err != nil {
		return true, badBody(c)
	}
	if err := c.Validate(v); err != nil {
		return true, respondError(c, h.Log, err)
	}
	return false, nil
}

// Register: POST /register/
func (h *AuthHandler) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	s, err := h.Svc.Register(ctx, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"msg":   "Verification email sent.",
		"token": s.Tokens,
	})
}

// ResendVerification: POST /resend-verification-email/
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req emailReq
	if done, err := h.bindValid(c, &req); done {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	already, err := h.Svc.ResendVerification(ctx, req.Email)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if already {
		return c.JSON(http.StatusOK, echo.Map{"email": "Already Verified."})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Verification email sent."})
}

// VerifyEmail: GET /email-verify/?token=
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	already, err := h.Svc.VerifyEmail(ctx, c.QueryParam("token"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if already {
		return c.JSON(http.StatusOK, echo.Map{"email": "Already Verified."})
	}
	return c.JSON(http.StatusOK, echo.Map{"email": "Verified successfully."})
}

// Login: POST /login/
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if done, err := h.bindValid(c, &req); done {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	s, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"email":    s.User.Email,
		"username": s.User.Username,
		"tokens":   s.Tokens,
	})
}

// Logout: POST /logout/ (bearer).  Blacklists the given refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req refreshReq
	if done, err := h.bindValid(c, &req); done {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Svc.Logout(ctx, uid, req.Refresh); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RefreshAccess: POST /token/refresh/
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if done, err := h.bindValid(c, &req); done {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	access, err := h.Svc.RefreshAccess(ctx, req.Refresh)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"access": access})
}

// Profile: GET /profile/ (bearer)
func (h *AuthHandler) Profile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Svc.Profile(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": u.ID, "email": u.Email, "username": u.Username})
}

// ChangePassword: POST /password-change/ (bearer)
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var in service.PasswordInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Svc.ChangePassword(ctx, uid, in); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Password changed successfully"})
}

// RequestPasswordReset: POST /request-password-reset-email/
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req emailReq
	if done, err := h.bindValid(c, &req); done {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Svc.RequestPasswordReset(ctx, req.Email); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Password reset email sent."})
}

// ResetPassword: POST /password-reset/:uidb64/:token/
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var in service.PasswordInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Svc.ResetPassword(ctx, c.Param("uidb64"), c.Param("token"), in); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Password reset successfully."})
}
