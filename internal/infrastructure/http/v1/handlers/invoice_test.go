package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billora/internal/core/apperror"
	"billora/internal/core/id"
	"billora/internal/domain/invoice"
	"billora/internal/infrastructure/http/v1/middleware"
)

// memRepo is an in-memory invoice.Repository for handler tests.
type memRepo struct {
	invoices []*invoice.Invoice
}

func (r *memRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	for _, existing := range r.invoices {
		if existing.Number == inv.Number {
			return apperror.NewDuplicate("invoice", "invoiceNumber", inv.Number)
		}
	}
	cp := *inv
	r.invoices = append(r.invoices, &cp)
	return nil
}

func (r *memRepo) SaveLines(ctx context.Context, invoiceID id.ID, items []invoice.LineItem) error {
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.ID == invoiceID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", invoiceID)
}

func (r *memRepo) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.Number == number {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", number)
}

func (r *memRepo) Update(ctx context.Context, inv *invoice.Invoice) error {
	for i, existing := range r.invoices {
		if existing.ID == inv.ID {
			if existing.Version != inv.Version {
				return apperror.NewConcurrentModification("invoice", inv.ID)
			}
			cp := *inv
			cp.Version++
			r.invoices[i] = &cp
			return nil
		}
	}
	return apperror.NewNotFound("invoice", inv.ID)
}

func (r *memRepo) List(ctx context.Context, filter invoice.ListFilter) (invoice.ListResult, error) {
	items := make([]*invoice.Invoice, len(r.invoices))
	copy(items, r.invoices)
	return invoice.ListResult{
		Items:      items,
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *memRepo) LatestNumberForBucket(ctx context.Context, bucketKey string) (string, error) {
	prefix := "INV-" + bucketKey + "-"
	for i := len(r.invoices) - 1; i >= 0; i-- {
		if strings.HasPrefix(r.invoices[i].Number, prefix) {
			return r.invoices[i].Number, nil
		}
	}
	return "", nil
}

type noopTx struct{}

func (noopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func setupRouter(repo *memRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := invoice.NewService(repo, noopTx{})

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())

	handler := NewInvoiceHandler(service)
	export := NewExportHandler(service)
	invoices := router.Group("/api/v1/invoices")
	{
		invoices.POST("", handler.Create)
		invoices.GET("", handler.List)
		invoices.GET("/export", export.ExportCSV)
		invoices.GET("/:id", handler.Get)
		invoices.PUT("/:id", handler.Update)
	}

	return router
}

func createPayload() map[string]any {
	return map[string]any{
		"type":        "sales",
		"invoiceDate": "2024-05-01T00:00:00Z",
		"sender":      map[string]any{"name": "Acme Corp"},
		"recipient":   map[string]any{"name": "Globex Inc"},
		"taxRate":     "18",
		"items": []map[string]any{
			{"description": "Widget", "quantity": 2, "unitPrice": "100.00"},
			{"description": "Gadget", "quantity": 1, "unitPrice": "50.00"},
		},
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInvoiceHandler_Create(t *testing.T) {
	router := setupRouter(&memRepo{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/invoices", createPayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "INV-20240501-001", resp["invoiceNumber"])
	assert.Equal(t, "250", resp["subtotal"])
	assert.Equal(t, "45", resp["taxAmount"])
	assert.Equal(t, "295", resp["total"])

	items, ok := resp["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "200", first["amount"])
}

func TestInvoiceHandler_Create_SequentialNumbers(t *testing.T) {
	router := setupRouter(&memRepo{})

	for _, want := range []string{"INV-20240501-001", "INV-20240501-002"} {
		w := doJSON(t, router, http.MethodPost, "/api/v1/invoices", createPayload())
		require.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, want, resp["invoiceNumber"])
	}
}

func TestInvoiceHandler_Create_InvalidItem(t *testing.T) {
	router := setupRouter(&memRepo{})

	payload := createPayload()
	payload["items"] = []map[string]any{
		{"description": "", "quantity": 1, "unitPrice": "1.00"},
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/invoices", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperror.CodeInvalidInput, resp["code"])

	details := resp["details"].(map[string]any)
	assert.Equal(t, "description", details["field"])
	assert.Equal(t, float64(0), details["itemIndex"])
}

func TestInvoiceHandler_Create_MalformedBody(t *testing.T) {
	router := setupRouter(&memRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperror.CodeValidation, resp["code"])
}

func TestInvoiceHandler_Get_NotFound(t *testing.T) {
	router := setupRouter(&memRepo{})

	w := doJSON(t, router, http.MethodGet, "/api/v1/invoices/"+id.New().String(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperror.CodeNotFound, resp["code"])
}

func TestInvoiceHandler_Get_BadID(t *testing.T) {
	router := setupRouter(&memRepo{})

	w := doJSON(t, router, http.MethodGet, "/api/v1/invoices/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandler_Update_NumberImmutable(t *testing.T) {
	repo := &memRepo{}
	router := setupRouter(repo)

	w := doJSON(t, router, http.MethodPost, "/api/v1/invoices", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	invoiceID := created["id"].(string)

	update := createPayload()
	update["version"] = 1
	update["items"] = []map[string]any{
		{"description": "Widget", "quantity": 10, "unitPrice": "100.00"},
	}

	w = doJSON(t, router, http.MethodPut, "/api/v1/invoices/"+invoiceID, update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, created["invoiceNumber"], updated["invoiceNumber"])
	assert.Equal(t, "1000", updated["subtotal"])
}

func TestInvoiceHandler_List(t *testing.T) {
	router := setupRouter(&memRepo{})

	for i := 0; i < 3; i++ {
		w := doJSON(t, router, http.MethodPost, "/api/v1/invoices", createPayload())
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/v1/invoices", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp["totalCount"])
}

func TestExportHandler_CSV(t *testing.T) {
	repo := &memRepo{}
	router := setupRouter(repo)

	w := doJSON(t, router, http.MethodPost, "/api/v1/invoices", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/invoices/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoices-")

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	defer gz.Close()

	records, err := csv.NewReader(gz).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2) // header + one invoice

	assert.Equal(t, "invoice_number", records[0][0])
	assert.Equal(t, "INV-20240501-001", records[1][0])
	assert.Equal(t, "2024-05-01", records[1][1])
	assert.Equal(t, "250.00", records[1][6])
	assert.Equal(t, "295.00", records[1][9])
}
