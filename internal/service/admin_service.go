package service

import (
	"context"
	"time"

	"smp/internal/model"
	"smp/internal/repository"
)

// CreateAdminInput is the body of an administrator registration.
type CreateAdminInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,ngphone"`
	Password string `json:"password" validate:"required,min=8"`
}

// AdminService handles administrator accounts.
type AdminService struct {
	*lifecycle[model.Admin, *model.Admin]
}

// NewAdminService creates a new admin service issuing tokens valid for ttl.
func NewAdminService(store repository.AdminStore, deps Deps, ttl time.Duration) *AdminService {
	return &AdminService{lifecycle: newLifecycle(store, deps, ttl)}
}

// Create registers an administrator.
func (s *AdminService) Create(ctx context.Context, in CreateAdminInput) (*model.Admin, error) {
	if err := s.check(in, profileMessages); err != nil {
		return nil, err
	}
	acct, err := s.newAccount(in.Name, in.Email, in.Phone, in.Password)
	if err != nil {
		return nil, err
	}
	admin := &model.Admin{Account: acct}
	if err := s.insert(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}
