package repository

import (
	"context"

	"github.com/noah-isme/vacation-admin-console/internal/models"
)

// UserRepository lists user accounts.
type UserRepository struct {
	api *APIClient
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(api *APIClient) *UserRepository {
	return &UserRepository{api: api}
}

// List returns a page of users.
func (r *UserRepository) List(ctx context.Context, query models.ListQuery) (*models.ListResult[models.User], error) {
	return fetchList[models.User](ctx, r.api, "users.list", "/usuarios", "usuarios", query)
}

// RoleRepository lists roles and their permissions.
type RoleRepository struct {
	api *APIClient
}

// NewRoleRepository constructs a RoleRepository.
func NewRoleRepository(api *APIClient) *RoleRepository {
	return &RoleRepository{api: api}
}

// List returns a page of roles.
func (r *RoleRepository) List(ctx context.Context, query models.ListQuery) (*models.ListResult[models.Role], error) {
	return fetchList[models.Role](ctx, r.api, "roles.list", "/roles", "roles", query)
}
