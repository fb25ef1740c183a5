package router

import (
	"context"
	"testing"
	"time"

	"order-bot/conversation"
	"order-bot/models"
	"order-bot/services"
	"order-bot/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	organizer = models.Actor{ID: 1, Role: models.RoleOrganizer}
	ann       = models.Actor{ID: 10, Role: models.RoleParticipant, Handle: "ann"}
	bob       = models.Actor{ID: 11, Role: models.RoleParticipant}
)

func newRouter(t *testing.T) *Router {
	t.Helper()
	s := store.NewMemory()
	catalog := services.NewCatalog(s)
	flows := conversation.NewEngine(conversation.NewMemoryStore(), catalog, time.Minute)
	return New(catalog, services.NewCartEngine(s, nil), services.NewReports(s), flows)
}

func dispatch(t *testing.T, r *Router, actor models.Actor, in Intent) Response {
	t.Helper()
	resp, err := r.Dispatch(context.Background(), actor, in)
	require.NoError(t, err, "%T", in)
	return resp
}

func TestOrganizerOnlyIntents(t *testing.T) {
	r := newRouter(t)
	intents := []Intent{
		StartOrderCreation{}, CreateOrder{Title: "x"}, StartMenuEntry{OrderID: 1},
		AddMenuItem{OrderID: 1, Name: "x", Price: 1}, FinishMenuEntry{OrderID: 1}, ListOrders{},
		ViewOrder{OrderID: 1}, ViewSummary{OrderID: 1}, ViewBill{OrderID: 1}, ViewSubmittedBill{OrderID: 1}, ExportReport{OrderID: 1},
	}
	for _, in := range intents {
		_, err := r.Dispatch(context.Background(), ann, in)
		assert.ErrorIs(t, err, services.ErrUnauthorized, "%T", in)
	}
	_, err := r.Dispatch(context.Background(), ann, nil)
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

// TestLunchSession drives both front-ends through one shared router.
func TestLunchSession(t *testing.T) {
	r := newRouter(t)

	resp := dispatch(t, r, organizer, StartOrderCreation{})
	require.NotNil(t, resp.Flow)
	assert.Equal(t, conversation.StepAwaitingTitle, resp.Flow.Step)

	resp = dispatch(t, r, organizer, Text{Input: "Lunch"})
	require.NotNil(t, resp.Order)
	assert.True(t, resp.FlowDone)
	orderID := resp.Order.ID

	dispatch(t, r, organizer, StartMenuEntry{OrderID: orderID})
	for _, in := range []string{"Pizza", "200", "Soup"} {
		dispatch(t, r, organizer, Text{Input: in})
	}
	resp = dispatch(t, r, organizer, Text{Input: "x150"})
	assert.True(t, resp.Reprompt)
	assert.Equal(t, conversation.StepAwaitingItemPrice, resp.Flow.Step)
	assert.Equal(t, "Soup", resp.Flow.PendingItemName)
	dispatch(t, r, organizer, Text{Input: "150"})
	resp = dispatch(t, r, organizer, Text{Input: "/done"})
	assert.True(t, resp.FlowDone)
	require.Len(t, resp.Menu, 2)
	pizza, soup := resp.Menu[0], resp.Menu[1]

	// Ann joins unregistered: name first, then the menu opens.
	resp = dispatch(t, r, ann, JoinOrder{OrderID: orderID})
	require.NotNil(t, resp.Flow)
	assert.Equal(t, conversation.StepAwaitingName, resp.Flow.Step)
	resp = dispatch(t, r, ann, Text{Input: "Ann"})
	assert.True(t, resp.FlowDone)
	require.NotNil(t, resp.User)
	assert.Len(t, resp.Menu, 2)

	dispatch(t, r, bob, RegisterName{Name: "Bob"})
	resp = dispatch(t, r, bob, JoinOrder{OrderID: orderID})
	assert.Nil(t, resp.Flow, "registered participant goes straight to the menu")

	resp = dispatch(t, r, ann, AdjustCart{OrderID: orderID, MenuID: pizza.ID, Delta: 1})
	assert.Equal(t, int64(1), resp.Quantity)
	dispatch(t, r, bob, AdjustCart{OrderID: orderID, MenuID: soup.ID, Delta: 1})
	resp = dispatch(t, r, bob, AdjustCart{OrderID: orderID, MenuID: soup.ID, Delta: 1})
	assert.Equal(t, int64(2), resp.Quantity)

	resp = dispatch(t, r, organizer, ViewBill{OrderID: orderID})
	assert.Equal(t, int64(500), resp.Bill.GrandTotal)
	resp = dispatch(t, r, organizer, ViewSummary{OrderID: orderID})
	assert.Equal(t, int64(2), resp.Summary.Quantity("Bob", "Soup"))

	resp = dispatch(t, r, bob, ViewCart{OrderID: orderID})
	assert.Equal(t, int64(300), resp.Cart.Total)
	resp = dispatch(t, r, bob, SubmitCart{OrderID: orderID})
	assert.Equal(t, int64(300), resp.Submission.Total)
	_, err := r.Dispatch(context.Background(), bob, SubmitCart{OrderID: orderID})
	assert.ErrorIs(t, err, services.ErrEmptyCart)

	resp = dispatch(t, r, organizer, ExportReport{OrderID: orderID})
	assert.Equal(t, []services.ReportLine{{MenuID: soup.ID, Name: "Soup", Quantity: 2, Amount: 300}}, resp.Report)
	resp = dispatch(t, r, organizer, ViewSubmittedBill{OrderID: orderID})
	assert.Equal(t, int64(300), resp.Bill.GrandTotal)

	resp = dispatch(t, r, organizer, ListOrders{})
	assert.Len(t, resp.Orders, 1)
}

func TestAdjustCartDeltaMustBeUnit(t *testing.T) {
	r := newRouter(t)
	_, err := r.Dispatch(context.Background(), ann, AdjustCart{OrderID: 1, MenuID: 1, Delta: 5})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestTextWithoutFlow(t *testing.T) {
	r := newRouter(t)
	_, err := r.Dispatch(context.Background(), ann, Text{Input: "hi"})
	assert.ErrorIs(t, err, services.ErrNoActiveFlow)
}

func TestCancel(t *testing.T) {
	r := newRouter(t)
	dispatch(t, r, ann, ChangeName{})
	resp := dispatch(t, r, ann, Cancel{})
	assert.True(t, resp.Cancelled)
	resp = dispatch(t, r, ann, Cancel{})
	assert.False(t, resp.Cancelled)
}

func TestJoinUnknownOrder(t *testing.T) {
	r := newRouter(t)
	_, err := r.Dispatch(context.Background(), ann, JoinOrder{OrderID: 404})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestListMyOrders(t *testing.T) {
	r := newRouter(t)
	other := models.Actor{ID: 2, Role: models.RoleOrganizer}
	dispatch(t, r, organizer, CreateOrder{Title: "Lunch"})
	dispatch(t, r, other, CreateOrder{Title: "Dinner"})

	resp := dispatch(t, r, organizer, ListOrders{})
	assert.Len(t, resp.Orders, 2)

	resp = dispatch(t, r, organizer, ListOrders{Mine: true})
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "Lunch", resp.Orders[0].Title)

	_, err := r.Dispatch(context.Background(), ann, ListOrders{Mine: true})
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}
