package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"smp/internal/auth"
	apperrors "smp/internal/errors"
	"smp/internal/model"
	"smp/internal/repository"
)

const testSecret = "test-secret"

// fakeClock starts an hour in the past so issued tokens are never dated in the future, and
// advances by a millisecond on every reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().Add(-time.Hour)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

// MockHasher is a mock implementation of auth.PasswordHasher.
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

type fixture struct {
	admins   *AdminService
	teachers *TeacherService
	tokens   *auth.JWTService
	clock    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewJWTService(testSecret)
	require.NoError(t, err)
	clock := newFakeClock()
	deps := Deps{
		Hasher: auth.NewBcryptHasher(bcrypt.MinCost),
		Tokens: tokens,
		Now:    clock.Now,
		Logger: zerolog.Nop(),
	}
	return &fixture{
		admins:   NewAdminService(repository.NewMemoryStore[model.Admin](), deps, auth.AdminTokenExpiry),
		teachers: NewTeacherService(repository.NewMemoryStore[model.Teacher](), deps, auth.TeacherTokenExpiry, "password123"),
		tokens:   tokens,
		clock:    clock,
	}
}

func validAdmin() CreateAdminInput {
	return CreateAdminInput{Name: "test", Email: "test@test.com", Phone: "07000100000", Password: "passpasspa"}
}

func TestAdminService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.admins.Create(ctx, validAdmin())
	require.NoError(t, err)
	assert.NotEmpty(t, admin.ID)
	assert.Equal(t, "test@test.com", admin.Email)
	assert.NotEqual(t, "passpasspa", admin.PasswordHash)
	assert.Equal(t, admin.CreatedAt, admin.LastPasswordChangeAt)
}

func TestAdminService_CreateValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*CreateAdminInput)
		want   string
	}{
		{"short name", func(in *CreateAdminInput) { in.Name = "o" }, MsgInvalidName},
		{"bad email", func(in *CreateAdminInput) { in.Email = "o" }, MsgInvalidEmail},
		{"bad phone", func(in *CreateAdminInput) { in.Phone = "0" }, MsgInvalidPhone},
		{"short password", func(in *CreateAdminInput) { in.Password = "pass" }, MsgShortPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validAdmin()
			tt.mutate(&in)
			_, err := f.admins.Create(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestAdminService_CreateConflictListsBothFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.admins.Create(ctx, validAdmin())
	require.NoError(t, err)

	in := validAdmin()
	in.Name = "other"
	_, err = f.admins.Create(ctx, in)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Len(t, apperrors.ConflictsOf(err), 2)
	assert.Contains(t, err.Error(), "Admin with email: test@test.com exists already")
	assert.Contains(t, err.Error(), "Admin with phone: 07000100000 exists already")
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.admins.Create(ctx, validAdmin())
	require.NoError(t, err)

	res, err := f.admins.Login(ctx, LoginInput{Email: "test@test.com", Password: "passpasspa"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, res.ID)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "test@test.com", claims.Email)
	assert.Equal(t, model.RoleAdmin, claims.Role)

	stored, err := f.admins.store.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastLoginAt.After(admin.LastLoginAt))
}

func TestLogin_FailuresShareOneMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.admins.Create(ctx, validAdmin())
	require.NoError(t, err)

	_, unknown := f.admins.Login(ctx, LoginInput{Email: "nobody@test.com", Password: "passpasspa"})
	_, wrong := f.admins.Login(ctx, LoginInput{Email: "test@test.com", Password: "wrongwrong"})

	for _, err := range []error{unknown, wrong} {
		require.Error(t, err)
		assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
		assert.Equal(t, MsgInvalidCredentials, err.Error())
	}

	_, err = f.admins.Login(ctx, LoginInput{Email: "test@test.com", Password: "short"})
	assert.Equal(t, MsgInvalidPassword, err.Error())
	_, err = f.admins.Login(ctx, LoginInput{Email: "nope", Password: "passpasspa"})
	assert.Equal(t, MsgInvalidEmail, err.Error())
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.admins.Create(ctx, validAdmin())
	require.NoError(t, err)

	t.Run("nothing provided", func(t *testing.T) {
		_, _, err := f.admins.Update(ctx, admin, UpdateInput{})
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		assert.Equal(t, MsgEmptyUpdate, err.Error())
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, _, err := f.admins.Update(ctx, admin, UpdateInput{Phone: "123"})
		assert.Equal(t, MsgInvalidPhone, err.Error())
	})

	t.Run("name only returns no token", func(t *testing.T) {
		updated, token, err := f.admins.Update(ctx, admin, UpdateInput{Name: "renamed"})
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Name)
		assert.Empty(t, token)
		assert.Equal(t, "test", admin.Name, "input actor must not be mutated")
	})

	t.Run("email change returns token for the new email", func(t *testing.T) {
		updated, token, err := f.admins.Update(ctx, admin, UpdateInput{Email: "new@test.com"})
		require.NoError(t, err)
		assert.Equal(t, "new@test.com", updated.Email)
		require.NotEmpty(t, token)

		claims, err := f.tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "new@test.com", claims.Email)

		stored, err := f.admins.store.FindByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", stored.Name)
		assert.Equal(t, "new@test.com", stored.Email)
	})
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.admins.Create(ctx, validAdmin())
	require.NoError(t, err)

	_, err = f.admins.ChangePassword(ctx, admin, ChangePasswordInput{OldPassword: "passpasspa"})
	assert.Equal(t, MsgMissingPasswords, err.Error())
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = f.admins.ChangePassword(ctx, admin, ChangePasswordInput{OldPassword: "wrongwrong", NewPassword: "newpassword"})
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
	assert.Equal(t, MsgWrongPassword, err.Error())

	_, err = f.admins.ChangePassword(ctx, admin, ChangePasswordInput{OldPassword: "passpasspa", NewPassword: "short"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	res, err := f.admins.ChangePassword(ctx, admin, ChangePasswordInput{OldPassword: "passpasspa", NewPassword: "newpassword"})
	require.NoError(t, err)

	stored, err := f.admins.store.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastPasswordChangeAt.After(admin.LastPasswordChangeAt))

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.True(t, claims.IssueDate.Equal(stored.LastPasswordChangeAt))

	_, err = f.admins.Login(ctx, LoginInput{Email: "test@test.com", Password: "newpassword"})
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.admins.Create(ctx, validAdmin())
	require.NoError(t, err)

	require.NoError(t, f.admins.Delete(ctx, admin))
	err = f.admins.Delete(ctx, admin)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestTeacherService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.admins.Create(ctx, validAdmin())
	require.NoError(t, err)

	in := CreateTeacherInput{AdminID: admin.ID, Name: "teacher", Email: "teacher@test.com", Phone: "08012345678"}

	_, err = f.teachers.Create(ctx, nil, in)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	created, err := f.teachers.Create(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, "password123", created.DefaultPassword)
	assert.True(t, created.Teacher.HasDefaultPassword)

	res, err := f.teachers.Login(ctx, LoginInput{Email: "teacher@test.com", Password: "password123"})
	require.NoError(t, err)
	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, claims.Role)
	assert.WithinDuration(t, claims.IssuedAt.Time.Add(auth.TeacherTokenExpiry), claims.ExpiresAt.Time, time.Second)

	// Teachers live in their own namespace.
	_, err = f.teachers.Create(ctx, admin, CreateTeacherInput{Name: "teacher", Email: "test@test.com", Phone: "07000100000"})
	assert.NoError(t, err)

	_, err = f.teachers.Create(ctx, admin, in)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestTeacherService_ChangeDefaultPasswordOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.admins.Create(ctx, validAdmin())
	require.NoError(t, err)
	created, err := f.teachers.Create(ctx, admin, CreateTeacherInput{Name: "teacher", Email: "teacher@test.com", Phone: "08012345678"})
	require.NoError(t, err)
	teacher := created.Teacher

	_, err = f.teachers.ChangeDefaultPassword(ctx, teacher, ChangeDefaultPasswordInput{NewPassword: "short"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	_, err = f.teachers.ChangeDefaultPassword(ctx, teacher, ChangeDefaultPasswordInput{NewPassword: "password123"})
	assert.Equal(t, MsgSameAsDefault, err.Error())

	res, err := f.teachers.ChangeDefaultPassword(ctx, teacher, ChangeDefaultPasswordInput{NewPassword: "mynewpassword"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	// The caller still holds the stale copy; the store rejects the second write.
	_, err = f.teachers.ChangeDefaultPassword(ctx, teacher, ChangeDefaultPasswordInput{NewPassword: "anotherpassword"})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	assert.Equal(t, MsgDefaultAlreadyChanged, err.Error())

	stored, err := f.teachers.store.FindByID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasDefaultPassword)

	_, err = f.teachers.ChangeDefaultPassword(ctx, stored, ChangeDefaultPasswordInput{NewPassword: "anotherpassword"})
	assert.Equal(t, MsgDefaultAlreadyChanged, err.Error())

	_, err = f.teachers.Login(ctx, LoginInput{Email: "teacher@test.com", Password: "mynewpassword"})
	assert.NoError(t, err)
}

func TestTeacherService_ConcurrentDefaultPasswordChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.admins.Create(ctx, validAdmin())
	require.NoError(t, err)
	created, err := f.teachers.Create(ctx, admin, CreateTeacherInput{Name: "teacher", Email: "teacher@test.com", Phone: "08012345678"})
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.teachers.ChangeDefaultPassword(ctx, created.Teacher, ChangeDefaultPasswordInput{NewPassword: "mynewpassword"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)
}

func TestHasherFailureIsInternal(t *testing.T) {
	tokens, err := auth.NewJWTService(testSecret)
	require.NoError(t, err)
	hasher := new(MockHasher)
	hasher.On("Hash", "passpasspa").Return("", errors.New("entropy exhausted"))

	admins := NewAdminService(repository.NewMemoryStore[model.Admin](), Deps{
		Hasher: hasher,
		Tokens: tokens,
		Logger: zerolog.Nop(),
	}, auth.AdminTokenExpiry)

	_, err = admins.Create(context.Background(), validAdmin())
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	hasher.AssertExpectations(t)
}

func TestUnreadableDigestFailsLogin(t *testing.T) {
	tokens, err := auth.NewJWTService(testSecret)
	require.NoError(t, err)
	hasher := new(MockHasher)
	hasher.On("Hash", mock.Anything).Return("digest", nil)
	hasher.On("Verify", "passpasspa", "digest").Return(false, errors.New("malformed digest"))

	admins := NewAdminService(repository.NewMemoryStore[model.Admin](), Deps{
		Hasher: hasher,
		Tokens: tokens,
		Logger: zerolog.Nop(),
	}, auth.AdminTokenExpiry)

	_, err = admins.Create(context.Background(), validAdmin())
	require.NoError(t, err)

	_, err = admins.Login(context.Background(), LoginInput{Email: "test@test.com", Password: "passpasspa"})
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
	hasher.AssertExpectations(t)
}
