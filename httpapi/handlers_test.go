package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"order-bot/models"
	"order-bot/services"
	"order-bot/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "k3y"

type apiFixture struct {
	router  *gin.Engine
	orderID int64
	carts   *services.CartEngine
	menu    []models.MenuItem
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	s := store.NewMemory()
	catalog := services.NewCatalog(s)
	carts := services.NewCartEngine(s, nil)
	organizer := models.Actor{ID: 1, Role: models.RoleOrganizer}

	o, err := catalog.CreateOrder(ctx, organizer, "Lunch")
	require.NoError(t, err)
	pizza, err := catalog.AddMenuItem(ctx, organizer, o.ID, "Pizza", 200)
	require.NoError(t, err)
	soup, err := catalog.AddMenuItem(ctx, organizer, o.ID, "Soup", 150)
	require.NoError(t, err)
	for id, name := range map[int64]string{10: "Ann", 11: "Bob"} {
		_, err := catalog.RegisterName(ctx, models.Actor{ID: id, Role: models.RoleParticipant}, name)
		require.NoError(t, err)
	}
	_, err = carts.AdjustQuantity(ctx, 10, o.ID, pizza.ID, 1)
	require.NoError(t, err)
	_, err = carts.AdjustQuantity(ctx, 11, o.ID, soup.ID, 2)
	require.NoError(t, err)

	return &apiFixture{
		router:  NewRouter(NewReportHandler(catalog, services.NewReports(s)), testKey),
		orderID: o.ID,
		carts:   carts,
		menu:    []models.MenuItem{pizza, soup},
	}
}

func (f *apiFixture) get(t *testing.T, path string, withKey bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if withKey {
		req.Header.Set(apiKeyHeader, testKey)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHealthNeedsNoKey(t *testing.T) {
	f := newAPI(t)
	w := f.get(t, "/health", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	f := newAPI(t)
	assert.Equal(t, http.StatusUnauthorized, f.get(t, "/orders", false).Code)

	noKey := NewRouter(NewReportHandler(nil, nil), "")
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set(apiKeyHeader, "")
	w := httptest.NewRecorder()
	noKey.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "empty key disables the API")
}

func TestListOrders(t *testing.T) {
	f := newAPI(t)
	w := f.get(t, "/orders", true)
	require.Equal(t, http.StatusOK, w.Code)
	var got []OrderJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Lunch", got[0].Title)
}

func TestBillAndSummary(t *testing.T) {
	f := newAPI(t)
	w := f.get(t, "/orders/1/bill", true)
	require.Equal(t, http.StatusOK, w.Code)
	var bill BillJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bill))
	assert.Equal(t, int64(500), bill.GrandTotal)
	require.Len(t, bill.Users, 2)
	assert.Equal(t, "Ann", bill.Users[0].Name)

	w = f.get(t, "/orders/1/summary", true)
	require.Equal(t, http.StatusOK, w.Code)
	var sum SummaryJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, []QuantityJSON{{Item: "Soup", Quantity: 2}}, sum.Users["Bob"])
}

func TestReportAfterSubmit(t *testing.T) {
	f := newAPI(t)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/orders/1/report", true).Code, "nothing submitted yet")

	_, err := f.carts.Submit(context.Background(), 11, f.orderID)
	require.NoError(t, err)

	w := f.get(t, "/orders/1/report", true)
	require.Equal(t, http.StatusOK, w.Code)
	var rep ReportJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, int64(300), rep.Total)

	w = f.get(t, "/orders/1/report?format=csv", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Item,Quantity,Total Price\nSoup,2,300\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	w = f.get(t, "/orders/1/submitted", true)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestBadAndUnknownOrder(t *testing.T) {
	f := newAPI(t)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/orders/abc/bill", true).Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/orders/99/bill", true).Code)
}
