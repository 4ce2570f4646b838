package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "smp/internal/errors"
	"smp/internal/middleware"
	"smp/internal/service"
)

// TeacherHandler handles teacher endpoints.
type TeacherHandler struct {
	teachers *service.TeacherService
}

// NewTeacherHandler creates a new teacher handler.
func NewTeacherHandler(teachers *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// CreateTeacherResponse is returned when an administrator adds a teacher. DefaultPassword is
// only ever disclosed here.
type CreateTeacherResponse struct {
	IdentityResponse
	HasDefaultPassword bool   `json:"hasDefaultPassword"`
	DefaultPassword    string `json:"defaultPassword"`
}

// TeacherProfileResponse carries the non-secret fields of a teacher.
type TeacherProfileResponse struct {
	ProfileResponse
	HasDefaultPassword bool `json:"hasDefaultPassword"`
}

// Create godoc
// @Summary Create a teacher
// @Description Requires a token of the administrator named by adminId.
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateTeacherInput true "Teacher details and authorising adminId"
// @Success 201 {object} CreateTeacherResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /teacher [post]
func (h *TeacherHandler) Create(c echo.Context) error {
	var req service.CreateTeacherInput
	if err := bind(c, &req, apperrors.SurfacePublic); err != nil {
		return err
	}

	created, err := h.teachers.Create(c.Request().Context(), middleware.AdminFrom(c), req)
	if err != nil {
		return fail(err, apperrors.SurfacePublic)
	}

	t := created.Teacher
	return c.JSON(http.StatusCreated, CreateTeacherResponse{
		IdentityResponse: IdentityResponse{
			Success: true,
			Message: "Teacher successfully created!",
			ID:      t.ID,
			Name:    t.Name,
			Email:   t.Email,
			Phone:   t.Phone,
		},
		HasDefaultPassword: t.HasDefaultPassword,
		DefaultPassword:    created.DefaultPassword,
	})
}

// Login godoc
// @Summary Log a teacher in
// @Tags teacher
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Credentials"
// @Success 201 {object} LoginResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /teacher/login [post]
func (h *TeacherHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := bind(c, &req, apperrors.SurfacePublic); err != nil {
		return err
	}

	res, err := h.teachers.Login(c.Request().Context(), req)
	if err != nil {
		return fail(err, apperrors.SurfacePublic)
	}
	return c.JSON(http.StatusCreated, loginResponse(res))
}

// Get godoc
// @Summary Get a teacher
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} TeacherProfileResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /teacher/{id} [get]
func (h *TeacherHandler) Get(c echo.Context) error {
	teacher := middleware.TeacherFrom(c)
	return c.JSON(http.StatusOK, TeacherProfileResponse{
		ProfileResponse:    profile(&teacher.Account),
		HasDefaultPassword: teacher.HasDefaultPassword,
	})
}

// Update godoc
// @Summary Update a teacher's profile
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Param request body service.UpdateInput true "Fields to change"
// @Success 202 {object} UpdateResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /teacher/{id} [put]
func (h *TeacherHandler) Update(c echo.Context) error {
	var req service.UpdateInput
	if err := bind(c, &req, apperrors.SurfaceAuthorized); err != nil {
		return err
	}

	updated, token, err := h.teachers.Update(c.Request().Context(), middleware.TeacherFrom(c), req)
	if err != nil {
		return fail(err, apperrors.SurfaceAuthorized)
	}
	return c.JSON(http.StatusAccepted, updateResponse(&updated.Account, token))
}

// ChangePassword godoc
// @Summary Change a teacher's password
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Param request body service.ChangePasswordInput true "Old and new password"
// @Success 202 {object} PasswordResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /teacher/password/{id} [put]
func (h *TeacherHandler) ChangePassword(c echo.Context) error {
	var req service.ChangePasswordInput
	if err := bind(c, &req, apperrors.SurfaceAuthorized); err != nil {
		return err
	}

	res, err := h.teachers.ChangePassword(c.Request().Context(), middleware.TeacherFrom(c), req)
	if err != nil {
		return fail(err, apperrors.SurfaceAuthorized)
	}
	return c.JSON(http.StatusAccepted, passwordResponse(res))
}

// ChangeDefaultPassword godoc
// @Summary Replace a teacher's default password
// @Description Allowed once, while the teacher still has the password issued at creation.
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Param request body service.ChangeDefaultPasswordInput true "New password"
// @Success 202 {object} PasswordResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /teacher/default-password/{id} [put]
func (h *TeacherHandler) ChangeDefaultPassword(c echo.Context) error {
	var req service.ChangeDefaultPasswordInput
	if err := bind(c, &req, apperrors.SurfaceAuthorized); err != nil {
		return err
	}

	res, err := h.teachers.ChangeDefaultPassword(c.Request().Context(), middleware.TeacherFrom(c), req)
	if err != nil {
		return fail(err, apperrors.SurfaceAuthorized)
	}
	return c.JSON(http.StatusAccepted, passwordResponse(res))
}

// Delete godoc
// @Summary Delete a teacher
// @Tags teacher
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /teacher/{id} [delete]
func (h *TeacherHandler) Delete(c echo.Context) error {
	if err := h.teachers.Delete(c.Request().Context(), middleware.TeacherFrom(c)); err != nil {
		return fail(err, apperrors.SurfaceAuthorized)
	}
	return c.NoContent(http.StatusNoContent)
}
