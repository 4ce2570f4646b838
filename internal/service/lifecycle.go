package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"smp/internal/auth"
	apperrors "smp/internal/errors"
	"smp/internal/metrics"
	"smp/internal/model"
	"smp/internal/repository"
	"smp/internal/validation"
)

// Messages shared by both roles.
const (
	MsgInvalidName        = "Please provide a valid name"
	MsgInvalidEmail       = "Please provide a valid email"
	MsgInvalidPhone       = "Please provide a valid nigerian phone number"
	MsgInvalidPassword    = "Please provide a valid password"
	MsgShortPassword      = "Please provide a password of at least 8 characters"
	MsgShortNewPassword   = "Please provide a new password of at least 8 characters"
	MsgEmptyUpdate        = "Please provide valid name, email or phone update with"
	MsgMissingPasswords   = "Please provide old and new passwords update with"
	MsgInvalidCredentials = "Invalid email or password"
	MsgWrongPassword      = "Wrong password"
)

// Deps are the collaborators every account service needs.
type Deps struct {
	Hasher    auth.PasswordHasher
	Tokens    auth.TokenIssuer
	Validator *validation.Validator
	// Now defaults to time.Now.
	Now     func() time.Time
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateInput carries the profile fields to change. Empty fields are left untouched.
type UpdateInput struct {
	Name  string `json:"name" validate:"omitempty,min=2"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,ngphone"`
}

// ChangePasswordInput is the body of a password change.
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	ID    string
	Email string
	Token string
}

// PasswordResult is returned by a successful password change.
type PasswordResult struct {
	ID    string
	Token string
}

var (
	loginMessages = map[string]string{
		"Email":    MsgInvalidEmail,
		"Password": MsgInvalidPassword,
	}
	profileMessages = map[string]string{
		"Name":     MsgInvalidName,
		"Email":    MsgInvalidEmail,
		"Phone":    MsgInvalidPhone,
		"Password": MsgShortPassword,
	}
)

// lifecycle implements the operations admins and teachers share.
type lifecycle[T any, PT model.ActorPtr[T]] struct {
	store    repository.Store[T, PT]
	hasher   auth.PasswordHasher
	tokens   auth.TokenIssuer
	validate *validation.Validator
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

func newLifecycle[T any, PT model.ActorPtr[T]](store repository.Store[T, PT], deps Deps, ttl time.Duration) *lifecycle[T, PT] {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	v := deps.Validator
	if v == nil {
		v = validation.New()
	}
	return &lifecycle[T, PT]{
		store:    store,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		validate: v,
		ttl:      ttl,
		now:      now,
		log:      deps.Logger,
		metrics:  deps.Metrics,
	}
}

func (l *lifecycle[T, PT]) role() model.Role {
	var zero T
	return PT(&zero).Role()
}

// clock returns the current instant at the precision timestamps are stored with.
func (l *lifecycle[T, PT]) clock() time.Time {
	return l.now().UTC().Truncate(time.Millisecond)
}

// check validates input and maps the first failing field to its message.
func (l *lifecycle[T, PT]) check(input any, messages map[string]string) error {
	field, err := l.validate.FirstInvalid(input)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("validate input: %w", err))
	}
	if field == "" {
		return nil
	}
	if msg, ok := messages[field]; ok {
		return apperrors.Validation(msg)
	}
	return apperrors.Validation(fmt.Sprintf("Please provide a valid %s", field))
}

func (l *lifecycle[T, PT]) internal(err error, msg string) error {
	l.log.Error().Err(err).Str("role", string(l.role())).Msg(msg)
	if apperrors.KindOf(err) == apperrors.KindInternal {
		return err
	}
	return apperrors.Internal(err)
}

// newAccount builds the shared fields of a fresh actor.
func (l *lifecycle[T, PT]) newAccount(name, email, phone, password string) (model.Account, error) {
	hash, err := l.hasher.Hash(password)
	if err != nil {
		return model.Account{}, l.internal(err, "hash password")
	}
	now := l.clock()
	return model.Account{
		ID:                   repository.NewID(),
		Name:                 name,
		Email:                email,
		Phone:                phone,
		PasswordHash:         hash,
		CreatedAt:            now,
		LastLoginAt:          now,
		LastPasswordChangeAt: now,
	}, nil
}

func (l *lifecycle[T, PT]) insert(ctx context.Context, actor PT) error {
	if err := l.store.Create(ctx, actor); err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return l.internal(err, "create account")
		}
		return err
	}
	l.metrics.AccountCreated(string(l.role()))
	return nil
}

// Login verifies credentials, records the login time and issues a token. Unknown emails and
// wrong passwords fail with the same message.
func (l *lifecycle[T, PT]) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := l.check(in, loginMessages); err != nil {
		return nil, err
	}

	actor, err := l.store.FindByEmail(ctx, in.Email)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			l.metrics.Login(string(l.role()), metrics.OutcomeFailure)
			return nil, apperrors.Auth(MsgInvalidCredentials)
		}
		return nil, l.internal(err, "find account by email")
	}

	ok, err := l.hasher.Verify(in.Password, actor.Identity().PasswordHash)
	if err != nil {
		l.log.Warn().Err(err).Str("id", actor.Identity().ID).Msg("stored password digest is unreadable")
	}
	if !ok {
		l.metrics.Login(string(l.role()), metrics.OutcomeFailure)
		return nil, apperrors.Auth(MsgInvalidCredentials)
	}

	next := *actor
	now := l.clock()
	PT(&next).Identity().LastLoginAt = now
	if err := l.store.Update(ctx, PT(&next), model.FieldLastLoginAt); err != nil {
		return nil, l.internal(err, "record login")
	}

	token, err := l.tokens.Issue(actor.Identity().Email, l.role(), now, l.ttl)
	if err != nil {
		return nil, l.internal(err, "issue token")
	}
	l.metrics.Login(string(l.role()), metrics.OutcomeSuccess)

	return &LoginResult{ID: actor.Identity().ID, Email: actor.Identity().Email, Token: token}, nil
}

// Update writes the provided profile fields. A token bound to the new email is returned when
// the email changed, since tokens issued for the old email stop being accepted.
func (l *lifecycle[T, PT]) Update(ctx context.Context, actor PT, in UpdateInput) (PT, string, error) {
	if in.Name == "" && in.Email == "" && in.Phone == "" {
		return nil, "", apperrors.Validation(MsgEmptyUpdate)
	}
	if err := l.check(in, profileMessages); err != nil {
		return nil, "", err
	}

	next := *actor
	acct := PT(&next).Identity()
	var fields []string
	if in.Name != "" && in.Name != acct.Name {
		acct.Name = in.Name
		fields = append(fields, model.FieldName)
	}
	emailChanged := in.Email != "" && in.Email != acct.Email
	if emailChanged {
		acct.Email = in.Email
		fields = append(fields, model.FieldEmail)
	}
	if in.Phone != "" && in.Phone != acct.Phone {
		acct.Phone = in.Phone
		fields = append(fields, model.FieldPhone)
	}
	if len(fields) == 0 {
		return PT(&next), "", nil
	}

	if err := l.store.Update(ctx, PT(&next), fields...); err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, "", l.internal(err, "update account")
		}
		return nil, "", err
	}

	if !emailChanged {
		return PT(&next), "", nil
	}
	token, err := l.tokens.Issue(acct.Email, l.role(), l.clock(), l.ttl)
	if err != nil {
		return nil, "", l.internal(err, "issue token")
	}
	return PT(&next), token, nil
}

// ChangePassword replaces the password after checking the old one. Moving
// lastPasswordChangeAt forward invalidates every token issued before it; the returned token is
// issued at exactly that instant.
func (l *lifecycle[T, PT]) ChangePassword(ctx context.Context, actor PT, in ChangePasswordInput) (*PasswordResult, error) {
	if in.OldPassword == "" || in.NewPassword == "" {
		return nil, apperrors.Validation(MsgMissingPasswords)
	}

	ok, err := l.hasher.Verify(in.OldPassword, actor.Identity().PasswordHash)
	if err != nil {
		l.log.Warn().Err(err).Str("id", actor.Identity().ID).Msg("stored password digest is unreadable")
	}
	if !ok {
		return nil, apperrors.Auth(MsgWrongPassword)
	}
	if len(in.NewPassword) < 8 {
		return nil, apperrors.Validation(MsgShortNewPassword)
	}

	next, changedAt, err := l.withPassword(actor, in.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := l.store.Update(ctx, next, model.FieldPasswordHash, model.FieldLastPasswordChangeAt); err != nil {
		return nil, l.internal(err, "update password")
	}
	return l.passwordChanged(next, changedAt)
}

// withPassword returns a copy of actor carrying the new password digest and change time.
func (l *lifecycle[T, PT]) withPassword(actor PT, password string) (PT, time.Time, error) {
	hash, err := l.hasher.Hash(password)
	if err != nil {
		return nil, time.Time{}, l.internal(err, "hash password")
	}
	next := *actor
	acct := PT(&next).Identity()
	changedAt := l.clock()
	if changedAt.Before(acct.LastPasswordChangeAt) {
		changedAt = acct.LastPasswordChangeAt
	}
	acct.PasswordHash = hash
	acct.LastPasswordChangeAt = changedAt
	return PT(&next), changedAt, nil
}

func (l *lifecycle[T, PT]) passwordChanged(actor PT, changedAt time.Time) (*PasswordResult, error) {
	token, err := l.tokens.Issue(actor.Identity().Email, l.role(), changedAt, l.ttl)
	if err != nil {
		return nil, l.internal(err, "issue token")
	}
	l.metrics.PasswordChanged(string(l.role()))
	return &PasswordResult{ID: actor.Identity().ID, Token: token}, nil
}

// Delete removes the actor.
func (l *lifecycle[T, PT]) Delete(ctx context.Context, actor PT) error {
	if err := l.store.Delete(ctx, actor.Identity().ID); err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return l.internal(err, "delete account")
		}
		return err
	}
	return nil
}
