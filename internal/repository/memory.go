package repository

import (
	"context"
	"fmt"
	"sync"

	apperrors "smp/internal/errors"
	"smp/internal/model"
)

// MemoryStore keeps actors in process memory. It backs local development
// (STORE_DRIVER=memory) and the end-to-end tests.
type MemoryStore[T any, PT model.ActorPtr[T]] struct {
	mu      sync.RWMutex
	records map[string]T
}

var (
	_ AdminStore   = (*MemoryStore[model.Admin, *model.Admin])(nil)
	_ TeacherStore = (*MemoryStore[model.Teacher, *model.Teacher])(nil)
)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore[T any, PT model.ActorPtr[T]]() *MemoryStore[T, PT] {
	return &MemoryStore[T, PT]{records: make(map[string]T)}
}

func (s *MemoryStore[T, PT]) role() model.Role {
	var zero T
	return PT(&zero).Role()
}

// ParseID implements Store.
func (s *MemoryStore[T, PT]) ParseID(id string) error {
	return parseID(id)
}

// Create implements Store.
func (s *MemoryStore[T, PT]) Create(ctx context.Context, actor PT) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := actor.Identity()
	if _, exists := s.records[acct.ID]; exists {
		return apperrors.Internal(fmt.Errorf("duplicate id %s", acct.ID))
	}
	if err := s.checkUnique(ctx, acct, nil); err != nil {
		return err
	}
	s.records[acct.ID] = *actor
	return nil
}

// FindByID implements Store.
func (s *MemoryStore[T, PT]) FindByID(_ context.Context, id string) (PT, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return PT(&rec), nil
}

// FindByEmail implements Store.
func (s *MemoryStore[T, PT]) FindByEmail(_ context.Context, email string) (PT, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if PT(&rec).Identity().Email == email {
			return PT(&rec), nil
		}
	}
	return nil, notFound(email)
}

// Update implements Store.
func (s *MemoryStore[T, PT]) Update(ctx context.Context, actor PT, fields ...string) error {
	return s.update(ctx, actor, nil, fields)
}

// UpdateIf implements Store.
func (s *MemoryStore[T, PT]) UpdateIf(ctx context.Context, actor PT, field string, expected any, fields ...string) error {
	return s.update(ctx, actor, func(current PT) bool {
		return fieldValue(current, field) == expected
	}, fields)
}

func (s *MemoryStore[T, PT]) update(ctx context.Context, actor PT, precondition func(PT) bool, fields []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := actor.Identity().ID
	current, ok := s.records[id]
	if !ok {
		return notFound(id)
	}
	if precondition != nil && !precondition(PT(&current)) {
		return ErrPreconditionFailed
	}

	next := current
	for _, field := range fields {
		if err := copyField(PT(&next), actor, field); err != nil {
			return err
		}
	}
	if err := s.checkUnique(ctx, PT(&next).Identity(), fields); err != nil {
		return err
	}
	s.records[id] = next
	return nil
}

// Delete implements Store.
func (s *MemoryStore[T, PT]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return notFound(id)
	}
	delete(s.records, id)
	return nil
}

// checkUnique must be called with the lock held.
func (s *MemoryStore[T, PT]) checkUnique(ctx context.Context, acct *model.Account, fields []string) error {
	conflicts, err := collectConflicts(ctx, acct, fields, func(_ context.Context, field, value string) (bool, error) {
		for id, rec := range s.records {
			if id != acct.ID && PT(&rec).Identity().UniqueValue(field) == value {
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return apperrors.Conflict(Subject(s.role()), conflicts)
	}
	return nil
}

func copyField[PT model.Actor](dst, src PT, field string) error {
	d, s := dst.Identity(), src.Identity()
	switch field {
	case model.FieldName:
		d.Name = s.Name
	case model.FieldEmail:
		d.Email = s.Email
	case model.FieldPhone:
		d.Phone = s.Phone
	case model.FieldPasswordHash:
		d.PasswordHash = s.PasswordHash
	case model.FieldLastLoginAt:
		d.LastLoginAt = s.LastLoginAt
	case model.FieldLastPasswordChangeAt:
		d.LastPasswordChangeAt = s.LastPasswordChangeAt
	case model.FieldHasDefaultPassword:
		dt, ok1 := any(dst).(*model.Teacher)
		st, ok2 := any(src).(*model.Teacher)
		if !ok1 || !ok2 {
			return apperrors.Internal(fmt.Errorf("field %s is not defined for %s", field, dst.Role()))
		}
		dt.HasDefaultPassword = st.HasDefaultPassword
	default:
		return apperrors.Internal(fmt.Errorf("field %s cannot be updated", field))
	}
	return nil
}

// fieldValue supports the fields UpdateIf is used with.
func fieldValue[PT model.Actor](actor PT, field string) any {
	if t, ok := any(actor).(*model.Teacher); ok && field == model.FieldHasDefaultPassword {
		return t.HasDefaultPassword
	}
	acct := actor.Identity()
	switch field {
	case model.FieldName:
		return acct.Name
	case model.FieldEmail, model.FieldPhone:
		return acct.UniqueValue(field)
	case model.FieldPasswordHash:
		return acct.PasswordHash
	}
	return nil
}
