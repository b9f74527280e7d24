package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockQuerierForTest creates a new mock Querier for testing
func NewMockQuerierForTest(t *testing.T) *MockQuerier {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockQuerier(ctrl)
}

// NewMockProviderForTest creates a new mock address validation Provider for testing
func NewMockProviderForTest(t *testing.T) *MockProvider {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockProvider(ctrl)
}
