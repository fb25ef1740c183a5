package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"order-bot/models"
	"order-bot/services"

	"github.com/gin-gonic/gin"
)

type OrderJSON struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	CreatedBy int64  `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

func orderJSON(o models.Order) OrderJSON {
	return OrderJSON{ID: o.ID, Title: o.Title, CreatedBy: o.CreatedBy, CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339)}
}

type QuantityJSON struct {
	Item     string `json:"item"`
	Quantity int64  `json:"quantity"`
}

type SummaryJSON struct {
	Order  OrderJSON                 `json:"order"`
	Users  map[string][]QuantityJSON `json:"users"`
	Totals []QuantityJSON            `json:"totals"`
}

type AmountJSON struct {
	Item     string `json:"item"`
	Quantity int64  `json:"quantity"`
	Amount   int64  `json:"amount"`
}

type UserBillJSON struct {
	Name     string       `json:"name"`
	Items    []AmountJSON `json:"items"`
	Subtotal int64        `json:"subtotal"`
}

type BillJSON struct {
	Order      OrderJSON      `json:"order"`
	Users      []UserBillJSON `json:"users"`
	Totals     []AmountJSON   `json:"totals"`
	GrandTotal int64          `json:"grand_total"`
}

type ReportJSON struct {
	Order OrderJSON    `json:"order"`
	Lines []AmountJSON `json:"lines"`
	Total int64        `json:"total"`
}

func amounts(items []services.ItemAmount) []AmountJSON {
	out := make([]AmountJSON, len(items))
	for i, it := range items {
		out[i] = AmountJSON{Item: it.Name, Quantity: it.Quantity, Amount: it.Amount}
	}
	return out
}

func quantities(items []services.ItemQuantity) []QuantityJSON {
	out := make([]QuantityJSON, len(items))
	for i, it := range items {
		out[i] = QuantityJSON{Item: it.Name, Quantity: it.Quantity}
	}
	return out
}

func billJSON(o models.Order, b services.Bill) BillJSON {
	out := BillJSON{Order: orderJSON(o), Totals: amounts(b.Totals), GrandTotal: b.GrandTotal, Users: make([]UserBillJSON, len(b.Users))}
	for i, u := range b.Users {
		out.Users[i] = UserBillJSON{Name: u.Name, Items: amounts(u.Items), Subtotal: u.Subtotal}
	}
	return out
}

// ReportHandler serves the organizer's read-only views over HTTP.
type ReportHandler struct {
	catalog *services.Catalog
	reports *services.Reports
}

func NewReportHandler(catalog *services.Catalog, reports *services.Reports) *ReportHandler {
	return &ReportHandler{catalog: catalog, reports: reports}
}

func (h *ReportHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "order-bot"})
}

func (h *ReportHandler) ListOrders(c *gin.Context) {
	orders, err := h.catalog.ListOrders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]OrderJSON, len(orders))
	for i, o := range orders {
		out[i] = orderJSON(o)
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) Summary(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	o, s, err := h.reports.CartSummary(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	out := SummaryJSON{Order: orderJSON(o), Users: make(map[string][]QuantityJSON, len(s.Users)), Totals: quantities(s.Totals)}
	for _, u := range s.Users {
		out.Users[u.Name] = quantities(u.Items)
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) Bill(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	o, b, err := h.reports.CartBill(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, billJSON(o, b))
}

func (h *ReportHandler) SubmittedBill(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	o, b, err := h.reports.SubmittedBill(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, billJSON(o, b))
}

// Report returns the finalized report as JSON, or as CSV with ?format=csv.
func (h *ReportHandler) Report(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	o, lines, err := h.reports.FinalizedReport(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if c.Query("format") == "csv" {
		c.Header("Content-Disposition", "attachment; filename=report_"+strconv.FormatInt(id, 10)+".csv")
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := services.WriteReportCSV(c.Writer, lines); err != nil {
			log.Printf("http: write csv for order %d: %v", id, err)
		}
		return
	}
	out := ReportJSON{Order: orderJSON(o), Total: services.ReportTotal(lines), Lines: make([]AmountJSON, len(lines))}
	for i, l := range lines {
		out.Lines[i] = AmountJSON{Item: l.Name, Quantity: l.Quantity, Amount: l.Amount}
	}
	c.JSON(http.StatusOK, out)
}

func orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrEmptyCart):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidInput):
		status = http.StatusBadRequest
	case services.IsTransient(err):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		log.Printf("http %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
