package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "smp/internal/errors"
	"smp/internal/model"
)

func newTeacher(email, phone string) *model.Teacher {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Teacher{
		Account: model.Account{
			ID:                   NewID(),
			Name:                 "Ada",
			Email:                email,
			Phone:                phone,
			PasswordHash:         "hash",
			CreatedAt:            now,
			LastLoginAt:          now,
			LastPasswordChangeAt: now,
		},
		HasDefaultPassword: true,
	}
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[model.Teacher]()

	teacher := newTeacher("ada@school.ng", "08012345678")
	require.NoError(t, store.Create(ctx, teacher))

	byID, err := store.FindByID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, teacher.Email, byID.Email)
	assert.True(t, byID.HasDefaultPassword)

	byEmail, err := store.FindByEmail(ctx, "ada@school.ng")
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, byEmail.ID)

	_, err = store.FindByEmail(ctx, "nobody@school.ng")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestMemoryStore_FindReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[model.Admin]()
	admin := &model.Admin{Account: model.Account{ID: NewID(), Email: "a@school.ng", Phone: "08012345678"}}
	require.NoError(t, store.Create(ctx, admin))

	found, err := store.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	found.Name = "changed"

	again, err := store.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Name)
}

func TestMemoryStore_CreateReportsEveryConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[model.Teacher]()
	require.NoError(t, store.Create(ctx, newTeacher("ada@school.ng", "08012345678")))

	tests := []struct {
		name      string
		email     string
		phone     string
		conflicts []apperrors.FieldConflict
	}{
		{
			name:      "email only",
			email:     "ada@school.ng",
			phone:     "08099999999",
			conflicts: []apperrors.FieldConflict{{Field: model.FieldEmail, Value: "ada@school.ng"}},
		},
		{
			name:      "phone only",
			email:     "other@school.ng",
			phone:     "08012345678",
			conflicts: []apperrors.FieldConflict{{Field: model.FieldPhone, Value: "08012345678"}},
		},
		{
			name:  "both",
			email: "ada@school.ng",
			phone: "08012345678",
			conflicts: []apperrors.FieldConflict{
				{Field: model.FieldEmail, Value: "ada@school.ng"},
				{Field: model.FieldPhone, Value: "08012345678"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Create(ctx, newTeacher(tt.email, tt.phone))
			require.Error(t, err)
			assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
			assert.Equal(t, tt.conflicts, apperrors.ConflictsOf(err))
			assert.Contains(t, err.Error(), "Teacher with")
		})
	}
}

func TestMemoryStore_UpdateWritesOnlyNamedFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[model.Teacher]()
	teacher := newTeacher("ada@school.ng", "08012345678")
	require.NoError(t, store.Create(ctx, teacher))

	// A stale copy carries a different name; only the email must be written.
	stale := *teacher
	stale.Name = "Stale"
	stale.Email = "new@school.ng"
	require.NoError(t, store.Update(ctx, &stale, model.FieldEmail))

	found, err := store.FindByID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", found.Name)
	assert.Equal(t, "new@school.ng", found.Email)
}

func TestMemoryStore_UpdateConflictOnlyForWrittenFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[model.Teacher]()
	first := newTeacher("ada@school.ng", "08012345678")
	second := newTeacher("bola@school.ng", "08087654321")
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	update := *second
	update.Email = first.Email
	err := store.Update(ctx, &update, model.FieldEmail)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Equal(t, []apperrors.FieldConflict{{Field: model.FieldEmail, Value: first.Email}}, apperrors.ConflictsOf(err))

	// Writing a record's own unique values back is not a conflict.
	same := *second
	require.NoError(t, store.Update(ctx, &same, model.FieldEmail, model.FieldPhone))
}

func TestMemoryStore_UpdateIf(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[model.Teacher]()
	teacher := newTeacher("ada@school.ng", "08012345678")
	require.NoError(t, store.Create(ctx, teacher))

	changed := *teacher
	changed.HasDefaultPassword = false
	changed.PasswordHash = "new-hash"
	require.NoError(t, store.UpdateIf(ctx, &changed, model.FieldHasDefaultPassword, true,
		model.FieldHasDefaultPassword, model.FieldPasswordHash))

	again := *teacher
	again.HasDefaultPassword = false
	again.PasswordHash = "other-hash"
	err := store.UpdateIf(ctx, &again, model.FieldHasDefaultPassword, true,
		model.FieldHasDefaultPassword, model.FieldPasswordHash)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	found, err := store.FindByID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", found.PasswordHash)
	assert.False(t, found.HasDefaultPassword)
}

func TestMemoryStore_UpdateRejectsUnknownField(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[model.Admin]()
	admin := &model.Admin{Account: model.Account{ID: NewID(), Email: "a@school.ng", Phone: "08012345678"}}
	require.NoError(t, store.Create(ctx, admin))

	err := store.Update(ctx, admin, model.FieldHasDefaultPassword)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[model.Admin]()
	admin := &model.Admin{Account: model.Account{ID: NewID(), Email: "a@school.ng", Phone: "08012345678"}}
	require.NoError(t, store.Create(ctx, admin))

	require.NoError(t, store.Delete(ctx, admin.ID))
	err := store.Delete(ctx, admin.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = store.FindByID(ctx, admin.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestParseID(t *testing.T) {
	store := NewMemoryStore[model.Admin]()
	assert.NoError(t, store.ParseID(NewID()))
	err := store.ParseID("not-an-id")
	assert.Equal(t, apperrors.KindInvalidID, apperrors.KindOf(err))
}
