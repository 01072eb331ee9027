package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"studioapi/internal/storage"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, r, opt)
	if f, ok := args.Get(0).(func(context.Context, string, io.Reader, storage.PutObjectOptions) storage.ObjectInfo); ok {
		return f(ctx, key, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, ref storage.ObjectRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockStorage) Driver() string {
	return "mock"
}
