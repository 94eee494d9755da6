package clients

import (
	"context"
	"encoding/json"

	"github.com/ruteri/tinycert-go/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockRequester implements interfaces.Requester for testing.
// The behavior is determined by how the mock is configured in tests.
type MockRequester struct {
	mock.Mock
}

// Request implements the Requester interface for testing.
func (m *MockRequester) Request(ctx context.Context, path string, params interfaces.Params) (json.RawMessage, error) {
	args := m.Called(ctx, path, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
