package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/tinycert-go/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockStorageBackend implements interfaces.StorageBackend for testing
type MockStorageBackend struct {
	mock.Mock
	name string
}

func (m *MockStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	args := m.Called(ctx, id, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	args := m.Called(ctx, data, contentType)
	return args.Get(0).(interfaces.ContentID), args.Error(1)
}

func (m *MockStorageBackend) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockStorageBackend) Name() string {
	return m.name
}

func (m *MockStorageBackend) LocationURI() string {
	return "mock://" + m.name
}

func newMock(name string, available bool) *MockStorageBackend {
	m := &MockStorageBackend{name: name}
	m.On("Available", mock.Anything).Return(available).Maybe()
	return m
}

func TestMultiStorageBackend_Available(t *testing.T) {
	tests := []struct {
		name     string
		backends []bool
		expected bool
	}{
		{
			name:     "all backends available",
			backends: []bool{true, true, true},
			expected: true,
		},
		{
			name:     "some backends available",
			backends: []bool{false, true, false},
			expected: true,
		},
		{
			name:     "no backends available",
			backends: []bool{false, false, false},
			expected: false,
		},
		{
			name:     "no backends",
			backends: []bool{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backends []interfaces.StorageBackend
			for i, available := range tt.backends {
				backends = append(backends, newMock(fmt.Sprintf("mock-%d", i), available))
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			multi := NewMultiStorageBackend(backends, logger)
			assert.Equal(t, tt.expected, multi.Available(context.Background()))
		})
	}
}

func TestMultiStorageBackend_Fetch(t *testing.T) {
	testData := []byte("-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n")
	testID := interfaces.ComputeID(testData)
	testErr := errors.New("test error")

	tests := []struct {
		name          string
		contentType   interfaces.ContentType
		setupMocks    func() []interfaces.StorageBackend
		expectedData  []byte
		expectedError error
	}{
		{
			name:        "first backend successful",
			contentType: interfaces.CertificateType,
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := newMock("mock-A", true)
				mock1.On("Fetch", mock.Anything, testID, interfaces.CertificateType).Return(testData, nil)
				mock2 := &MockStorageBackend{name: "mock-B"}
				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedData: testData,
		},
		{
			name:        "first backend fails, second succeeds",
			contentType: interfaces.CertificateType,
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := newMock("mock-A", true)
				mock1.On("Fetch", mock.Anything, testID, interfaces.CertificateType).Return(nil, testErr)
				mock2 := newMock("mock-B", true)
				mock2.On("Fetch", mock.Anything, testID, interfaces.CertificateType).Return(testData, nil)
				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedData: testData,
		},
		{
			name:        "corrupted content is skipped",
			contentType: interfaces.CertificateType,
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := newMock("mock-A", true)
				mock1.On("Fetch", mock.Anything, testID, interfaces.CertificateType).Return([]byte("tampered"), nil)
				mock2 := newMock("mock-B", true)
				mock2.On("Fetch", mock.Anything, testID, interfaces.CertificateType).Return(testData, nil)
				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedData: testData,
		},
		{
			name:        "secret refused by public backend",
			contentType: interfaces.KeyType,
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := newMock("mock-s3", true)
				mock1.On("Fetch", mock.Anything, testID, interfaces.KeyType).Return(nil, interfaces.ErrSecretNotAllowed)
				mock2 := newMock("mock-vault", true)
				mock2.On("Fetch", mock.Anything, testID, interfaces.KeyType).Return(testData, nil)
				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedData: testData,
		},
		{
			name:        "not found anywhere",
			contentType: interfaces.CertificateType,
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := newMock("mock-A", true)
				mock1.On("Fetch", mock.Anything, testID, interfaces.CertificateType).Return(nil, interfaces.ErrContentNotFound)
				mock2 := newMock("mock-B", false)
				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedError: interfaces.ErrContentNotFound,
		},
		{
			name:        "all backends fail",
			contentType: interfaces.CertificateType,
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := newMock("mock-A", true)
				mock1.On("Fetch", mock.Anything, testID, interfaces.CertificateType).Return(nil, testErr)
				mock2 := newMock("mock-B", true)
				mock2.On("Fetch", mock.Anything, testID, interfaces.CertificateType).Return(nil, testErr)
				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedError: testErr,
		},
		{
			name:        "unavailable backends are skipped",
			contentType: interfaces.CertificateType,
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := newMock("mock-A", false)
				mock2 := newMock("mock-B", true)
				mock2.On("Fetch", mock.Anything, testID, interfaces.CertificateType).Return(testData, nil)
				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedData: testData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			multi := NewMultiStorageBackend(backends, logger)

			data, err := multi.Fetch(context.Background(), testID, tt.contentType)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedData, data)

			for _, backend := range backends {
				backend.(*MockStorageBackend).AssertExpectations(t)
			}
		})
	}
}

func TestMultiStorageBackend_Store(t *testing.T) {
	testData := []byte("-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n")
	testID := interfaces.ComputeID(testData)
	testErr := errors.New("test error")

	tests := []struct {
		name          string
		setupMocks    func() []interfaces.StorageBackend
		expectedError error
	}{
		{
			name: "all backends successful",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := newMock("mock-A", true)
				mock1.On("Store", mock.Anything, testData, interfaces.ChainType).Return(testID, nil)
				mock2 := newMock("mock-B", true)
				mock2.On("Store", mock.Anything, testData, interfaces.ChainType).Return(testID, nil)
				return []interfaces.StorageBackend{mock1, mock2}
			},
		},
		{
			name: "some backends fail",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := newMock("mock-A", true)
				mock1.On("Store", mock.Anything, testData, interfaces.ChainType).Return(testID, nil)
				mock2 := newMock("mock-B", true)
				mock2.On("Store", mock.Anything, testData, interfaces.ChainType).Return(interfaces.ContentID{}, testErr)
				return []interfaces.StorageBackend{mock1, mock2}
			},
		},
		{
			name: "all backends fail",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := newMock("mock-A", true)
				mock1.On("Store", mock.Anything, testData, interfaces.ChainType).Return(interfaces.ContentID{}, testErr)
				mock2 := newMock("mock-B", true)
				mock2.On("Store", mock.Anything, testData, interfaces.ChainType).Return(interfaces.ContentID{}, testErr)
				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedError: testErr,
		},
		{
			name: "no backend available",
			setupMocks: func() []interfaces.StorageBackend {
				return []interfaces.StorageBackend{newMock("mock-A", false), newMock("mock-B", false)}
			},
			expectedError: interfaces.ErrBackendUnavailable,
		},
		{
			name: "unavailable backends are skipped",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := newMock("mock-A", false)
				mock2 := newMock("mock-B", true)
				mock2.On("Store", mock.Anything, testData, interfaces.ChainType).Return(testID, nil)
				return []interfaces.StorageBackend{mock1, mock2}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			multi := NewMultiStorageBackend(backends, logger)

			id, err := multi.Store(context.Background(), testData, interfaces.ChainType)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, testID, id)

			for _, backend := range backends {
				backend.(*MockStorageBackend).AssertExpectations(t)
			}
		})
	}
}

func TestMultiStorageBackend_LocationURI(t *testing.T) {
	multi := NewMultiStorageBackend([]interfaces.StorageBackend{
		&MockStorageBackend{name: "a"},
		&MockStorageBackend{name: "b"},
	}, nil)
	assert.Equal(t, "multi:[mock://a,mock://b]", multi.LocationURI())
}
