package numbering

import (
	"context"
	"errors"
	"testing"
	"time"

	"billora/internal/core/apperror"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestBucketKey_UTC(t *testing.T) {
	// 2024-05-01 23:30 in UTC+5 is 18:30 UTC, still May 1st.
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2024, 5, 1, 23, 30, 0, 0, loc)

	if got := BucketKey(local); got != "20240501" {
		t.Errorf("expected bucket 20240501, got %s", got)
	}

	// 2024-05-01 02:00 in UTC+5 is the previous day in UTC.
	early := time.Date(2024, 5, 1, 2, 0, 0, 0, loc)
	if got := BucketKey(early); got != "20240430" {
		t.Errorf("expected bucket 20240430, got %s", got)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		bucket string
		seq    int
		want   string
	}{
		{"20240501", 1, "INV-20240501-001"},
		{"20240501", 42, "INV-20240501-042"},
		{"20241231", 999, "INV-20241231-999"},
	}

	for _, tt := range tests {
		if got := Format(tt.bucket, tt.seq); got != tt.want {
			t.Errorf("Format(%s, %d) = %s, want %s", tt.bucket, tt.seq, got, tt.want)
		}
		if !IsValid(Format(tt.bucket, tt.seq)) {
			t.Errorf("Format(%s, %d) produced invalid number", tt.bucket, tt.seq)
		}
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{"INV-20240501-001", "INV-20240501-999"}
	invalid := []string{
		"",
		"INV-20240501-1",     // unpadded suffix
		"INV-20240501-0001",  // too wide
		"INV-2024051-001",    // short date
		"inv-20240501-001",   // lowercase prefix
		"ORD-20240501-001",   // wrong prefix
		"INV-20240501-001 ",  // trailing space
		"xINV-20240501-001",  // leading junk
		"INV-20240501-ABC",   // non-numeric suffix
	}

	for _, n := range valid {
		if !IsValid(n) {
			t.Errorf("expected %q to be valid", n)
		}
	}
	for _, n := range invalid {
		if IsValid(n) {
			t.Errorf("expected %q to be invalid", n)
		}
	}
}

func TestAllocator_Next_FirstOfDay(t *testing.T) {
	source := &MockSource{
		LatestNumberForBucketFunc: func(ctx context.Context, bucketKey string) (string, error) {
			return "", nil
		},
	}

	num, err := NewAllocator(source).Next(context.Background(), date(2024, 5, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "INV-20240501-001" {
		t.Errorf("expected INV-20240501-001, got %s", num)
	}
}

func TestAllocator_Next_Increments(t *testing.T) {
	tests := []struct {
		name string
		last string
		want string
	}{
		{"after first", "INV-20240501-001", "INV-20240501-002"},
		{"mid range", "INV-20240501-041", "INV-20240501-042"},
		{"into triple digits", "INV-20240501-099", "INV-20240501-100"},
		{"last valid", "INV-20240501-998", "INV-20240501-999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &MockSource{
				LatestNumberForBucketFunc: func(ctx context.Context, bucketKey string) (string, error) {
					return tt.last, nil
				},
			}

			num, err := NewAllocator(source).Next(context.Background(), date(2024, 5, 1))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if num != tt.want {
				t.Errorf("expected %s, got %s", tt.want, num)
			}
		})
	}
}

func TestAllocator_Next_BucketsAreIndependent(t *testing.T) {
	// The source only ever sees its own bucket; a full previous day must not
	// leak into the next day's sequence.
	source := &MockSource{
		LatestNumberForBucketFunc: func(ctx context.Context, bucketKey string) (string, error) {
			if bucketKey == "20240501" {
				return "INV-20240501-999", nil
			}
			return "", nil
		},
	}

	num, err := NewAllocator(source).Next(context.Background(), date(2024, 5, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "INV-20240502-001" {
		t.Errorf("expected INV-20240502-001, got %s", num)
	}
}

func TestAllocator_Next_Exhausted(t *testing.T) {
	source := &MockSource{
		LatestNumberForBucketFunc: func(ctx context.Context, bucketKey string) (string, error) {
			return "INV-20240501-999", nil
		},
	}

	_, err := NewAllocator(source).Next(context.Background(), date(2024, 5, 1))
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != apperror.CodeSequenceExhausted {
		t.Errorf("expected code %s, got %s", apperror.CodeSequenceExhausted, appErr.Code)
	}
}

func TestAllocator_Next_Corrupted(t *testing.T) {
	tests := []struct {
		name string
		last string
	}{
		{"garbage", "INVOICE-FIVE"},
		{"unpadded suffix", "INV-20240501-7"},
		{"wide suffix", "INV-20240501-1000"},
		{"wrong bucket in stored number", "INV-20240430-003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &MockSource{
				LatestNumberForBucketFunc: func(ctx context.Context, bucketKey string) (string, error) {
					return tt.last, nil
				},
			}

			_, err := NewAllocator(source).Next(context.Background(), date(2024, 5, 1))
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			appErr, ok := apperror.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.Code != apperror.CodeSequenceCorrupted {
				t.Errorf("expected code %s, got %s", apperror.CodeSequenceCorrupted, appErr.Code)
			}
			if appErr.Details["stored"] != tt.last {
				t.Errorf("expected stored detail %q, got %v", tt.last, appErr.Details["stored"])
			}
		})
	}
}

func TestAllocator_Next_SourceError(t *testing.T) {
	sourceErr := errors.New("connection refused")
	source := &MockSource{
		LatestNumberForBucketFunc: func(ctx context.Context, bucketKey string) (string, error) {
			return "", sourceErr
		},
	}

	_, err := NewAllocator(source).Next(context.Background(), date(2024, 5, 1))
	if !errors.Is(err, sourceErr) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}
