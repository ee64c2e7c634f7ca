package vault

import "context"

// MockCredentialSource is a configurable mock for testing credential
// resolution. Set the function fields to control behavior in tests.
type MockCredentialSource struct {
	// HasProviderFunc is called when HasProvider is invoked.
	// If nil, returns true.
	HasProviderFunc func() bool

	// GetCredentialsFunc is called when GetCredentials is invoked.
	// If nil, returns nil map and nil error.
	GetCredentialsFunc func(ctx context.Context, key string) (map[string]string, error)

	// Call tracking for verification
	GetCredentialsCalls int
}

// NewMockCredentialSource creates a new mock credential source.
func NewMockCredentialSource() *MockCredentialSource {
	return &MockCredentialSource{}
}

// HasProvider implements CredentialSource.
func (m *MockCredentialSource) HasProvider() bool {
	if m.HasProviderFunc != nil {
		return m.HasProviderFunc()
	}
	return true
}

// GetCredentials implements CredentialSource.
func (m *MockCredentialSource) GetCredentials(ctx context.Context, key string) (map[string]string, error) {
	m.GetCredentialsCalls++
	if m.GetCredentialsFunc != nil {
		return m.GetCredentialsFunc(ctx, key)
	}
	return nil, nil
}

// Ensure MockCredentialSource implements CredentialSource at compile time.
var _ CredentialSource = (*MockCredentialSource)(nil)
