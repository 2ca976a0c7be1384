package numbering

import (
	"context"
)

// MockSource is a test implementation of Source.
// Use in unit tests to avoid database dependencies.
type MockSource struct {
	LatestNumberForBucketFunc func(ctx context.Context, bucketKey string) (string, error)
}

// LatestNumberForBucket implements Source.
func (m *MockSource) LatestNumberForBucket(ctx context.Context, bucketKey string) (string, error) {
	if m.LatestNumberForBucketFunc != nil {
		return m.LatestNumberForBucketFunc(ctx, bucketKey)
	}
	return "", nil
}

// Ensure compile-time interface compliance.
var _ Source = (*MockSource)(nil)
