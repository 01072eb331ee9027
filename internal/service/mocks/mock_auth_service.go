package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"studioapi/internal/auth"
	"studioapi/internal/model"
	"studioapi/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, claims *auth.Claims) (*model.AdminView, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminView), args.Error(1)
}

func (m *MockAuthService) ListAdmins(ctx context.Context, p service.ListParams) (*service.ListResult[model.AdminView], error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.AdminView]), args.Error(1)
}

func (m *MockAuthService) GetAdmin(ctx context.Context, id string) (*model.AdminView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminView), args.Error(1)
}

func (m *MockAuthService) CreateAdmin(ctx context.Context, in service.AdminInput) (*model.AdminView, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminView), args.Error(1)
}

func (m *MockAuthService) UpdateAdmin(ctx context.Context, id string, in service.AdminInput) (*model.AdminView, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminView), args.Error(1)
}

func (m *MockAuthService) DeleteAdmin(ctx context.Context, actorID, id string) error {
	args := m.Called(ctx, actorID, id)
	return args.Error(0)
}
