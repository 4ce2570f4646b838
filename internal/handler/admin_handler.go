package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "smp/internal/errors"
	"smp/internal/middleware"
	"smp/internal/model"
	"smp/internal/service"
)

// AdminHandler handles administrator endpoints.
type AdminHandler struct {
	admins *service.AdminService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(admins *service.AdminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

// IdentityResponse is returned when an account is created.
type IdentityResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"_id"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

// ProfileResponse carries the non-secret fields of an account.
type ProfileResponse struct {
	Success            bool      `json:"success"`
	ID                 string    `json:"_id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	DateCreated        time.Time `json:"dateCreated"`
	LastLogin          time.Time `json:"lastLogin"`
	LastPasswordChange time.Time `json:"lastPasswordChange"`
}

// UpdateResponse is returned by a profile update. Token is set when the email changed.
type UpdateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Token   string `json:"token,omitempty"`
}

// PasswordResponse is returned by a password change.
type PasswordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"_id"`
	Token   string `json:"token"`
}

func profile(acct *model.Account) ProfileResponse {
	return ProfileResponse{
		Success:            true,
		ID:                 acct.ID,
		Name:               acct.Name,
		Email:              acct.Email,
		Phone:              acct.Phone,
		DateCreated:        acct.CreatedAt,
		LastLogin:          acct.LastLoginAt,
		LastPasswordChange: acct.LastPasswordChangeAt,
	}
}

func loginResponse(res *service.LoginResult) LoginResponse {
	return LoginResponse{Success: true, Message: "Login Successful", ID: res.ID, Email: res.Email, Token: res.Token}
}

func updateResponse(acct *model.Account, token string) UpdateResponse {
	return UpdateResponse{
		Success: true,
		Message: "Update Successful",
		ID:      acct.ID,
		Name:    acct.Name,
		Email:   acct.Email,
		Phone:   acct.Phone,
		Token:   token,
	}
}

func passwordResponse(res *service.PasswordResult) PasswordResponse {
	return PasswordResponse{Success: true, Message: "Password Update Successful", ID: res.ID, Token: res.Token}
}

// Create godoc
// @Summary Register an administrator
// @Tags admin
// @Accept json
// @Produce json
// @Param request body service.CreateAdminInput true "Administrator details"
// @Success 201 {object} IdentityResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin [post]
func (h *AdminHandler) Create(c echo.Context) error {
	var req service.CreateAdminInput
	if err := bind(c, &req, apperrors.SurfacePublic); err != nil {
		return err
	}

	admin, err := h.admins.Create(c.Request().Context(), req)
	if err != nil {
		return fail(err, apperrors.SurfacePublic)
	}

	return c.JSON(http.StatusCreated, IdentityResponse{
		Success: true,
		Message: "Admin successfully created!",
		ID:      admin.ID,
		Name:    admin.Name,
		Email:   admin.Email,
		Phone:   admin.Phone,
	})
}

// Login godoc
// @Summary Log an administrator in
// @Tags admin
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Credentials"
// @Success 201 {object} LoginResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/login [post]
func (h *AdminHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := bind(c, &req, apperrors.SurfacePublic); err != nil {
		return err
	}

	res, err := h.admins.Login(c.Request().Context(), req)
	if err != nil {
		return fail(err, apperrors.SurfacePublic)
	}
	return c.JSON(http.StatusCreated, loginResponse(res))
}

// Get godoc
// @Summary Get an administrator
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Administrator ID"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/{id} [get]
func (h *AdminHandler) Get(c echo.Context) error {
	admin := middleware.AdminFrom(c)
	return c.JSON(http.StatusOK, profile(&admin.Account))
}

// Update godoc
// @Summary Update an administrator's profile
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Administrator ID"
// @Param request body service.UpdateInput true "Fields to change"
// @Success 202 {object} UpdateResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/{id} [put]
func (h *AdminHandler) Update(c echo.Context) error {
	var req service.UpdateInput
	if err := bind(c, &req, apperrors.SurfaceAuthorized); err != nil {
		return err
	}

	updated, token, err := h.admins.Update(c.Request().Context(), middleware.AdminFrom(c), req)
	if err != nil {
		return fail(err, apperrors.SurfaceAuthorized)
	}
	return c.JSON(http.StatusAccepted, updateResponse(&updated.Account, token))
}

// ChangePassword godoc
// @Summary Change an administrator's password
// @Description Every token issued before the change stops being accepted.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Administrator ID"
// @Param request body service.ChangePasswordInput true "Old and new password"
// @Success 202 {object} PasswordResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/password/{id} [put]
func (h *AdminHandler) ChangePassword(c echo.Context) error {
	var req service.ChangePasswordInput
	if err := bind(c, &req, apperrors.SurfaceAuthorized); err != nil {
		return err
	}

	res, err := h.admins.ChangePassword(c.Request().Context(), middleware.AdminFrom(c), req)
	if err != nil {
		return fail(err, apperrors.SurfaceAuthorized)
	}
	return c.JSON(http.StatusAccepted, passwordResponse(res))
}

// Delete godoc
// @Summary Delete an administrator
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Administrator ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/{id} [delete]
func (h *AdminHandler) Delete(c echo.Context) error {
	if err := h.admins.Delete(c.Request().Context(), middleware.AdminFrom(c)); err != nil {
		return fail(err, apperrors.SurfaceAuthorized)
	}
	return c.NoContent(http.StatusNoContent)
}
