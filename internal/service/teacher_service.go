package service

import (
	"context"
	"errors"
	"time"

	apperrors "smp/internal/errors"
	"smp/internal/model"
	"smp/internal/repository"
)

// Teacher specific messages.
const (
	MsgNotPermitted          = "Access not Permitted"
	MsgDefaultAlreadyChanged = "Default password has already been changed"
	MsgSameAsDefault         = "Please choose a password different from the default password"
)

// CreateTeacherInput is the body of a teacher creation. AdminID names the administrator
// authorising the request.
type CreateTeacherInput struct {
	AdminID string `json:"adminId"`
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,ngphone"`
}

// ChangeDefaultPasswordInput is the body of the mandatory first password change.
type ChangeDefaultPasswordInput struct {
	NewPassword string `json:"new_password"`
}

// CreatedTeacher is a new teacher along with the default password it was given. The
// plaintext is never available again.
type CreatedTeacher struct {
	Teacher         *model.Teacher
	DefaultPassword string
}

// TeacherService handles teacher accounts.
type TeacherService struct {
	*lifecycle[model.Teacher, *model.Teacher]
	defaultPassword string
}

// NewTeacherService creates a new teacher service. New teachers get defaultPassword.
func NewTeacherService(store repository.TeacherStore, deps Deps, ttl time.Duration, defaultPassword string) *TeacherService {
	return &TeacherService{
		lifecycle:       newLifecycle(store, deps, ttl),
		defaultPassword: defaultPassword,
	}
}

// Create adds a teacher on behalf of admin, which must already be authorised.
func (s *TeacherService) Create(ctx context.Context, admin *model.Admin, in CreateTeacherInput) (*CreatedTeacher, error) {
	if admin == nil {
		return nil, apperrors.Forbidden(MsgNotPermitted)
	}
	if err := s.check(in, profileMessages); err != nil {
		return nil, err
	}
	acct, err := s.newAccount(in.Name, in.Email, in.Phone, s.defaultPassword)
	if err != nil {
		return nil, err
	}
	teacher := &model.Teacher{Account: acct, HasDefaultPassword: true}
	if err := s.insert(ctx, teacher); err != nil {
		return nil, err
	}
	s.log.Info().Str("teacher_id", teacher.ID).Str("admin_id", admin.ID).Msg("teacher created")
	return &CreatedTeacher{Teacher: teacher, DefaultPassword: s.defaultPassword}, nil
}

// ChangeDefaultPassword replaces the default password. It succeeds once per teacher: the write
// only applies while the stored flag is still set, so concurrent attempts cannot both win.
func (s *TeacherService) ChangeDefaultPassword(ctx context.Context, teacher *model.Teacher, in ChangeDefaultPasswordInput) (*PasswordResult, error) {
	if !teacher.HasDefaultPassword {
		return nil, apperrors.Forbidden(MsgDefaultAlreadyChanged)
	}
	if len(in.NewPassword) < 8 {
		return nil, apperrors.Validation(MsgShortNewPassword)
	}
	if in.NewPassword == s.defaultPassword {
		return nil, apperrors.Validation(MsgSameAsDefault)
	}

	next, changedAt, err := s.withPassword(teacher, in.NewPassword)
	if err != nil {
		return nil, err
	}
	next.HasDefaultPassword = false

	err = s.store.UpdateIf(ctx, next, model.FieldHasDefaultPassword, true,
		model.FieldHasDefaultPassword, model.FieldPasswordHash, model.FieldLastPasswordChangeAt)
	if errors.Is(err, repository.ErrPreconditionFailed) {
		return nil, apperrors.Forbidden(MsgDefaultAlreadyChanged)
	}
	if err != nil {
		return nil, s.internal(err, "change default password")
	}
	return s.passwordChanged(next, changedAt)
}
