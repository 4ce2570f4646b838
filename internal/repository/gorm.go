package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "smp/internal/errors"
	"smp/internal/model"
)

const mysqlDuplicateEntry = 1062

// GormStore persists actors in a SQL table through GORM. Uniqueness relies on the unique
// indexes declared on model.Account.
type GormStore[T any, PT model.ActorPtr[T]] struct {
	db *gorm.DB
}

var (
	_ AdminStore   = (*GormStore[model.Admin, *model.Admin])(nil)
	_ TeacherStore = (*GormStore[model.Teacher, *model.Teacher])(nil)
)

// NewGormStore creates a new GORM backed store.
func NewGormStore[T any, PT model.ActorPtr[T]](db *gorm.DB) *GormStore[T, PT] {
	return &GormStore[T, PT]{db: db}
}

func (s *GormStore[T, PT]) role() model.Role {
	var zero T
	return PT(&zero).Role()
}

// ParseID implements Store.
func (s *GormStore[T, PT]) ParseID(id string) error {
	return parseID(id)
}

// Create implements Store.
func (s *GormStore[T, PT]) Create(ctx context.Context, actor PT) error {
	err := s.db.WithContext(ctx).Create(actor).Error
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return duplicateKey(ctx, s.role(), actor.Identity(), nil, s.taken(actor.Identity().ID))
	}
	return apperrors.Internal(fmt.Errorf("create %s: %w", s.role(), err))
}

// FindByID implements Store.
func (s *GormStore[T, PT]) FindByID(ctx context.Context, id string) (PT, error) {
	return s.first(ctx, id, model.FieldID+" = ?", id)
}

// FindByEmail implements Store.
func (s *GormStore[T, PT]) FindByEmail(ctx context.Context, email string) (PT, error) {
	return s.first(ctx, email, model.FieldEmail+" = ?", email)
}

func (s *GormStore[T, PT]) first(ctx context.Context, key string, query string, args ...any) (PT, error) {
	var rec T
	if err := s.db.WithContext(ctx).Where(query, args...).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(key)
		}
		return nil, apperrors.Internal(fmt.Errorf("find %s: %w", s.role(), err))
	}
	return PT(&rec), nil
}

// Update implements Store. MySQL reports zero affected rows when the values did not change,
// so a missing record is only detected by the callers' prior lookup.
func (s *GormStore[T, PT]) Update(ctx context.Context, actor PT, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(actor).Select(fields).Updates(actor).Error
	return s.writeError(ctx, actor, fields, err)
}

// UpdateIf implements Store.
func (s *GormStore[T, PT]) UpdateIf(ctx context.Context, actor PT, field string, expected any, fields ...string) error {
	res := s.db.WithContext(ctx).Model(actor).
		Where(clause.Eq{Column: clause.Column{Name: field}, Value: expected}).
		Select(fields).
		Updates(actor)
	if res.Error != nil {
		return s.writeError(ctx, actor, fields, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPreconditionFailed
	}
	return nil
}

// Delete implements Store.
func (s *GormStore[T, PT]) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where(model.FieldID+" = ?", id).Delete(new(T))
	if res.Error != nil {
		return apperrors.Internal(fmt.Errorf("delete %s: %w", s.role(), res.Error))
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

func (s *GormStore[T, PT]) writeError(ctx context.Context, actor PT, fields []string, err error) error {
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return duplicateKey(ctx, s.role(), actor.Identity(), fields, s.taken(actor.Identity().ID))
	}
	return apperrors.Internal(fmt.Errorf("update %s: %w", s.role(), err))
}

func (s *GormStore[T, PT]) taken(selfID string) takenFunc {
	return func(ctx context.Context, field, value string) (bool, error) {
		var n int64
		err := s.db.WithContext(ctx).Model(new(T)).
			Where(clause.Eq{Column: clause.Column{Name: field}, Value: value}).
			Where(clause.Neq{Column: clause.Column{Name: model.FieldID}, Value: selfID}).
			Count(&n).Error
		return n > 0, err
	}
}

// isDuplicateKey recognises unique index violations both when GORM translates dialect errors
// and when the raw driver error comes through.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
