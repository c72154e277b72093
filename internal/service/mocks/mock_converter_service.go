package mocks

import (
	"context"
	"io"

	"converterapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockConverterService struct {
	mock.Mock
}

func (m *MockConverterService) Convert(ctx context.Context, r io.Reader, originalFilename string) (*model.Artifact, error) {
	args := m.Called(ctx, r, originalFilename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artifact), args.Error(1)
}

func (m *MockConverterService) Open(ctx context.Context, name string) (io.ReadCloser, *model.Artifact, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var art *model.Artifact
	if v := args.Get(1); v != nil {
		art = v.(*model.Artifact)
	}
	return args.Get(0).(io.ReadCloser), art, args.Error(2)
}
