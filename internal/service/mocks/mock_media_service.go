package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"studioapi/internal/model"
	"studioapi/internal/service"
)

type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) Upload(ctx context.Context, folder string, files []service.UploadFile) ([]model.Asset, error) {
	args := m.Called(ctx, folder, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Asset), args.Error(1)
}

func (m *MockMediaService) Delete(ctx context.Context, assets []model.Asset) error {
	args := m.Called(ctx, assets)
	return args.Error(0)
}

func (m *MockMediaService) Remove(ctx context.Context, assets ...model.Asset) {
	m.Called(ctx, assets)
}
