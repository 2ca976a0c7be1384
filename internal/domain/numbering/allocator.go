// Package numbering provides daily-sequential invoice number allocation.
// Pattern: INV-YYYYMMDD-NNN (e.g., INV-20240501-001).
package numbering

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"billora/internal/core/apperror"
)

const (
	// Prefix added to all invoice numbers.
	Prefix = "INV"

	// MaxSequence is the largest suffix the 3-digit format can express.
	MaxSequence = 999

	// bucketLayout formats a date into its YYYYMMDD bucket key.
	bucketLayout = "20060102"
)

// numberPattern is the bit-exact external contract for invoice numbers.
var numberPattern = regexp.MustCompile(`^INV-(\d{8})-(\d{3})$`)

// BucketKey builds the YYYYMMDD sequence bucket for a date.
// Always computed in UTC so two servers in different timezones agree on the bucket.
func BucketKey(t time.Time) string {
	return t.UTC().Format(bucketLayout)
}

// IsValid reports whether a number matches the INV-YYYYMMDD-NNN contract.
func IsValid(number string) bool {
	return numberPattern.MatchString(number)
}

// Format renders a bucket key and sequence into an invoice number.
func Format(bucketKey string, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", Prefix, bucketKey, seq)
}

// Source looks up the most recently created invoice number in a bucket.
// Implementations query the store for numbers matching INV-<bucketKey>-\d{3},
// ordered by creation time descending, and return "" when none exist.
type Source interface {
	LatestNumberForBucket(ctx context.Context, bucketKey string) (string, error)
}

// Allocator produces the next invoice number for a date by scanning the
// latest stored number in the date's bucket.
//
// The result is correct under serialized access only: two concurrent callers
// can read the same latest number and compute the same successor. Uniqueness
// across concurrent creates is enforced by the storage unique constraint plus
// the bounded allocate+insert retry in the invoice service.
type Allocator struct {
	source Source
}

// NewAllocator creates an allocator backed by the given number source.
func NewAllocator(source Source) *Allocator {
	return &Allocator{source: source}
}

// Next returns the next invoice number for the given date.
//
// A stored number that does not parse fails with SEQUENCE_CORRUPTED rather
// than silently restarting at 1, which would mint a colliding number.
// A sequence past 999 fails with SEQUENCE_EXHAUSTED; the format is never
// widened or wrapped.
func (a *Allocator) Next(ctx context.Context, date time.Time) (string, error) {
	bucket := BucketKey(date)

	last, err := a.source.LatestNumberForBucket(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("latest number for bucket %s: %w", bucket, err)
	}

	seq := 1
	if last != "" {
		m := numberPattern.FindStringSubmatch(last)
		if m == nil || m[1] != bucket {
			return "", apperror.NewSequenceCorrupted(bucket, last)
		}

		prev, err := strconv.Atoi(m[2])
		if err != nil {
			return "", apperror.NewSequenceCorrupted(bucket, last)
		}
		seq = prev + 1
	}

	if seq > MaxSequence {
		return "", apperror.NewSequenceExhausted(bucket)
	}

	return Format(bucket, seq), nil
}
