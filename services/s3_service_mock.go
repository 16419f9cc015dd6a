package services

import (
	"context"
	"fmt"
	"sync"
)

// MockReportStorage is an in-memory ReportStorage for testing
type MockReportStorage struct {
	reports    map[string][]byte
	mu         sync.RWMutex
	UploadErr  error
	PresignErr error
}

// NewMockReportStorage creates a new mock report storage
func NewMockReportStorage() *MockReportStorage {
	return &MockReportStorage{
		reports: make(map[string][]byte),
	}
}

// UploadReport stores the body in memory
func (m *MockReportStorage) UploadReport(_ context.Context, key string, body []byte, _ string) error {
	if m.UploadErr != nil {
		return m.UploadErr
	}

	m.mu.Lock()
	m.reports[key] = append([]byte(nil), body...)
	m.mu.Unlock()
	return nil
}

// GetPresignedURL returns a fake URL for a stored report
func (m *MockReportStorage) GetPresignedURL(_ context.Context, key string) (string, error) {
	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.reports[key]
	m.mu.RUnlock()
	if !exists {
		return "", fmt.Errorf("report not found in mock storage: %s", key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// DeleteReport removes a stored report
func (m *MockReportStorage) DeleteReport(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.reports, key)
	m.mu.Unlock()
	return nil
}

// Report returns the stored body for key
func (m *MockReportStorage) Report(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.reports[key]
	return body, ok
}

// Keys returns the keys of all stored reports
func (m *MockReportStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.reports))
	for k := range m.reports {
		keys = append(keys, k)
	}
	return keys
}
