package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Triumph-Tech/magnus"
)

// MockInteractor implements magnus.Interactor for testing across packages
type MockInteractor struct {
	mock.Mock
}

func (m *MockInteractor) PromptCredentials(ctx context.Context, serverURL string) (magnus.Credentials, bool) {
	args := m.Called(ctx, serverURL)
	return args.Get(0).(magnus.Credentials), args.Bool(1)
}

func (m *MockInteractor) PromptInput(ctx context.Context, prompt string) (string, bool) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Bool(1)
}

func (m *MockInteractor) Confirm(ctx context.Context, message string) bool {
	args := m.Called(ctx, message)
	return args.Bool(0)
}

func (m *MockInteractor) PickFiles(ctx context.Context) ([]string, bool) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]string), args.Bool(1)
}

func (m *MockInteractor) PickFolder(ctx context.Context) (string, bool) {
	args := m.Called(ctx)
	return args.String(0), args.Bool(1)
}

func (m *MockInteractor) ShowMessage(message string) {
	m.Called(message)
}

func (m *MockInteractor) ShowError(message string) {
	m.Called(message)
}

func (m *MockInteractor) WithProgress(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, title, fn)
	// Run the unit unless the test overrides the outcome
	if args.Error(0) == nil {
		return fn(ctx)
	}
	return args.Error(0)
}

var _ magnus.Interactor = (*MockInteractor)(nil)
