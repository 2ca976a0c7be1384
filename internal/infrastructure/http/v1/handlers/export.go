package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"

	"billora/internal/domain/invoice"
	"billora/internal/infrastructure/http/v1/dto"
)

// exportPageSize bounds memory while streaming large exports.
const exportPageSize = 500

// ExportHandler streams invoice exports.
type ExportHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewExportHandler creates a new export handler.
func NewExportHandler(service *invoice.Service) *ExportHandler {
	return &ExportHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

var exportHeader = []string{
	"invoice_number", "invoice_date", "due_date", "type",
	"sender", "recipient", "subtotal", "tax_rate", "tax_amount", "total",
	"created_at",
}

// ExportCSV streams all matching invoices as gzip-compressed CSV.
// GET /api/v1/invoices/export
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	var req dto.ListInvoicesRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filename := fmt.Sprintf("invoices-%s.csv.gz", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Encoding", "gzip")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	gz := gzip.NewWriter(c.Writer)
	defer gz.Close()

	w := csv.NewWriter(gz)
	defer w.Flush()

	if err := w.Write(exportHeader); err != nil {
		return
	}

	filter := req.ToFilter()
	filter.Limit = exportPageSize
	filter.Offset = 0

	for {
		result, err := h.service.List(c.Request.Context(), filter)
		if err != nil {
			// Headers are already written; the truncated stream signals failure.
			return
		}

		for _, inv := range result.Items {
			if err := w.Write(exportRow(inv)); err != nil {
				return
			}
		}

		filter.Offset += len(result.Items)
		if len(result.Items) < exportPageSize || int64(filter.Offset) >= result.TotalCount {
			break
		}
	}
}

func exportRow(inv *invoice.Invoice) []string {
	dueDate := ""
	if inv.DueDate != nil {
		dueDate = inv.DueDate.Format("2006-01-02")
	}

	return []string{
		inv.Number,
		inv.Date.Format("2006-01-02"),
		dueDate,
		string(inv.Type),
		inv.Sender.Name,
		inv.Recipient.Name,
		inv.Subtotal.StringFixed(2),
		inv.TaxRate.String(),
		inv.TaxAmount.StringFixed(2),
		inv.Total.StringFixed(2),
		inv.CreatedAt.Format(time.RFC3339),
	}
}
