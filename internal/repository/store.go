package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "smp/internal/errors"
	"smp/internal/model"
)

// ErrPreconditionFailed is returned by UpdateIf when the stored record no longer holds the
// expected value.
var ErrPreconditionFailed = apperrors.New(apperrors.KindConflict, "record was modified concurrently")

// Store persists one actor variant. Implementations enforce email and phone uniqueness at write
// time and report every colliding field in a single KindConflict error.
type Store[T any, PT model.ActorPtr[T]] interface {
	// ParseID reports a KindInvalidID error when id is not in the store's id format.
	ParseID(id string) error
	Create(ctx context.Context, actor PT) error
	FindByID(ctx context.Context, id string) (PT, error)
	FindByEmail(ctx context.Context, email string) (PT, error)
	// Update writes only the named fields of actor.
	Update(ctx context.Context, actor PT, fields ...string) error
	// UpdateIf writes the named fields only while the stored value of field equals expected.
	UpdateIf(ctx context.Context, actor PT, field string, expected any, fields ...string) error
	Delete(ctx context.Context, id string) error
}

// AdminStore is the store of administrators.
type AdminStore = Store[model.Admin, *model.Admin]

// TeacherStore is the store of teachers.
type TeacherStore = Store[model.Teacher, *model.Teacher]

// NewID returns a fresh actor id.
func NewID() string {
	return uuid.NewString()
}

func parseID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &apperrors.Error{Kind: apperrors.KindInvalidID, Message: fmt.Sprintf("invalid id %q", id), Err: err}
	}
	return nil
}

func notFound(id string) error {
	return apperrors.NotFound(fmt.Sprintf("record %s not found", id))
}

// Subject returns the display name of a role used in user-facing messages.
func Subject(role model.Role) string {
	switch role {
	case model.RoleTeacher:
		return "Teacher"
	default:
		return "Admin"
	}
}

// takenFunc reports whether value is already used in field by a record other than the one
// being written.
type takenFunc func(ctx context.Context, field, value string) (bool, error)

// collectConflicts lists every unique field of acct whose value is held by another record.
// When fields is non-nil only those fields are considered.
func collectConflicts(ctx context.Context, acct *model.Account, fields []string, taken takenFunc) ([]apperrors.FieldConflict, error) {
	var conflicts []apperrors.FieldConflict
	for _, field := range model.UniqueFields {
		if fields != nil && !contains(fields, field) {
			continue
		}
		value := acct.UniqueValue(field)
		used, err := taken(ctx, field, value)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("check %s uniqueness: %w", field, err))
		}
		if used {
			conflicts = append(conflicts, apperrors.FieldConflict{Field: field, Value: value})
		}
	}
	return conflicts, nil
}

// duplicateKey builds the error for a write the backend rejected on a unique index. The
// colliding fields are looked up afterwards so the caller can fix them all at once.
func duplicateKey(ctx context.Context, role model.Role, acct *model.Account, fields []string, taken takenFunc) error {
	conflicts, err := collectConflicts(ctx, acct, fields, taken)
	if err != nil {
		return err
	}
	return apperrors.Conflict(Subject(role), conflicts)
}

func contains(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
