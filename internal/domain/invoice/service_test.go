package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billora/internal/core/apperror"
	"billora/internal/core/id"
)

// fakeRepo is an in-memory Repository keyed by invoice number.
// A number pre-claimed via claim() makes the matching Create collide the way
// the storage unique constraint would.
type fakeRepo struct {
	byNumber map[string]*Invoice
	claimed  map[string]int // number -> remaining collisions
	created  []string       // numbers in insertion order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byNumber: make(map[string]*Invoice),
		claimed:  make(map[string]int),
	}
}

// claim makes the next n Create calls for number fail with DUPLICATE_ENTRY.
func (r *fakeRepo) claim(number string, n int) {
	r.claimed[number] = n
}

func (r *fakeRepo) Create(ctx context.Context, inv *Invoice) error {
	if n, ok := r.claimed[inv.Number]; ok && n > 0 {
		r.claimed[inv.Number] = n - 1
		return apperror.NewDuplicate("invoice", "invoiceNumber", inv.Number)
	}
	if _, exists := r.byNumber[inv.Number]; exists {
		return apperror.NewDuplicate("invoice", "invoiceNumber", inv.Number)
	}
	cp := *inv
	r.byNumber[inv.Number] = &cp
	r.created = append(r.created, inv.Number)
	return nil
}

func (r *fakeRepo) SaveLines(ctx context.Context, invoiceID id.ID, items []LineItem) error {
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	for _, inv := range r.byNumber {
		if inv.ID == invoiceID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", invoiceID)
}

func (r *fakeRepo) GetByNumber(ctx context.Context, num string) (*Invoice, error) {
	if inv, ok := r.byNumber[num]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, apperror.NewNotFound("invoice", num)
}

func (r *fakeRepo) Update(ctx context.Context, inv *Invoice) error {
	stored, ok := r.byNumber[inv.Number]
	if !ok {
		return apperror.NewNotFound("invoice", inv.ID)
	}
	if stored.Version != inv.Version {
		return apperror.NewConcurrentModification("invoice", inv.ID)
	}
	cp := *inv
	cp.Version++
	r.byNumber[inv.Number] = &cp
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	return ListResult{}, nil
}

func (r *fakeRepo) LatestNumberForBucket(ctx context.Context, bucketKey string) (string, error) {
	// Walk insertion order backwards: newest matching number wins, same as
	// the ORDER BY created_at DESC query.
	prefix := "INV-" + bucketKey + "-"
	for i := len(r.created) - 1; i >= 0; i-- {
		if len(r.created[i]) == len(prefix)+3 && r.created[i][:len(prefix)] == prefix {
			return r.created[i], nil
		}
	}
	return "", nil
}

// fakeTxManager runs the function directly; the fake repo has no real
// transactions to coordinate.
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testInvoice(t *testing.T) (*Invoice, []ItemInput) {
	t.Helper()
	inv := New(TypeSales)
	inv.Date = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	inv.Sender = Party{Name: "Acme Corp"}
	inv.Recipient = Party{Name: "Globex Inc"}
	inv.TaxRate = money("18")
	items := []ItemInput{
		{Description: "Widget", Quantity: 2, UnitPrice: money("100.00")},
	}
	return inv, items
}

func TestService_Create_AllocatesSequentialNumbers(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeTxManager{})
	ctx := context.Background()

	for i, want := range []string{"INV-20240501-001", "INV-20240501-002", "INV-20240501-003"} {
		inv, items := testInvoice(t)
		require.NoError(t, svc.Create(ctx, inv, items), "create %d", i)
		assert.Equal(t, want, inv.Number)
	}
}

func TestService_Create_ComputesDerivedFields(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeTxManager{})

	inv, items := testInvoice(t)
	// Client-sent derived values must be discarded.
	inv.Subtotal = money("999999")
	inv.Total = money("999999")

	require.NoError(t, svc.Create(context.Background(), inv, items))

	assert.Equal(t, "200.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "36.00", inv.TaxAmount.StringFixed(2))
	assert.Equal(t, "236.00", inv.Total.StringFixed(2))

	stored, err := repo.GetByNumber(context.Background(), inv.Number)
	require.NoError(t, err)
	assert.Equal(t, "236.00", stored.Total.StringFixed(2))
}

func TestService_Create_RetriesOnCollision(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeTxManager{})
	ctx := context.Background()

	// Another request wins INV-20240501-001 twice in a row.
	repo.claim("INV-20240501-001", 2)

	inv, items := testInvoice(t)
	require.NoError(t, svc.Create(ctx, inv, items))

	// The fake source never sees the claimed number stored, so the retry
	// recomputes the same successor until the claim is released.
	assert.Equal(t, "INV-20240501-001", inv.Number)
	assert.Len(t, repo.created, 1)
}

func TestService_Create_RetriesExhausted(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeTxManager{})
	ctx := context.Background()

	repo.claim("INV-20240501-001", maxAllocationAttempts)

	inv, items := testInvoice(t)
	err := svc.Create(ctx, inv, items)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeAllocationRetriesExceeded, appErr.Code)
	assert.Equal(t, "20240501", appErr.Details["bucket"])
	assert.Equal(t, maxAllocationAttempts, appErr.Details["attempts"])
}

func TestService_Create_InvalidItemsRejectedBeforeAllocation(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeTxManager{})

	inv, _ := testInvoice(t)
	err := svc.Create(context.Background(), inv, []ItemInput{
		{Description: "", Quantity: 1, UnitPrice: money("1.00")},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
	// Nothing was persisted and no number was burned.
	assert.Empty(t, repo.created)
}

func TestService_Update_RecomputesTotalsAndKeepsNumber(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeTxManager{})
	ctx := context.Background()

	inv, items := testInvoice(t)
	require.NoError(t, svc.Create(ctx, inv, items))
	originalNumber := inv.Number

	updated, err := repo.GetByNumber(ctx, originalNumber)
	require.NoError(t, err)

	err = svc.Update(ctx, updated, []ItemInput{
		{Description: "Widget", Quantity: 5, UnitPrice: money("100.00")},
		{Description: "Gadget", Quantity: 1, UnitPrice: money("25.50")},
	})
	require.NoError(t, err)

	assert.Equal(t, originalNumber, updated.Number)
	assert.Equal(t, "525.50", updated.Subtotal.StringFixed(2))
	assert.Equal(t, "94.59", updated.TaxAmount.StringFixed(2))
	assert.Equal(t, "620.09", updated.Total.StringFixed(2))
}

func TestService_Update_ConcurrentModification(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeTxManager{})
	ctx := context.Background()

	inv, items := testInvoice(t)
	require.NoError(t, svc.Create(ctx, inv, items))

	stale, err := repo.GetByNumber(ctx, inv.Number)
	require.NoError(t, err)
	stale.Version = stale.Version - 1

	err = svc.Update(ctx, stale, items)
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestService_Create_SeparateDaysSeparateSequences(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeTxManager{})
	ctx := context.Background()

	first, items := testInvoice(t)
	require.NoError(t, svc.Create(ctx, first, items))

	second, items2 := testInvoice(t)
	second.Date = time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Create(ctx, second, items2))

	assert.Equal(t, "INV-20240501-001", first.Number)
	assert.Equal(t, "INV-20240502-001", second.Number)
}
