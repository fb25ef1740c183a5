package bot

import (
	"bytes"
	"strings"
	"testing"

	"order-bot/conversation"
	"order-bot/models"
	"order-bot/router"
	"order-bot/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testRender = Renderer{Currency: "Toman", UserBotUsername: "lunch_bot"}
	lunch      = models.Order{ID: 3, Title: "Lunch", CreatedBy: 1}
	pizza      = models.MenuItem{ID: 7, OrderID: 3, Name: "Pizza", Price: 200}
	soup       = models.MenuItem{ID: 8, OrderID: 3, Name: "Soup", Price: 150}
)

func TestOrderCreatedHasInviteLink(t *testing.T) {
	c := organizerCard(testRender, router.CreateOrder{Title: "Lunch"}, router.Response{Order: &lunch})
	assert.Contains(t, c.Text, "https://t.me/lunch_bot?start=3")
	assert.Contains(t, c.Text, "/addmenu 3")

	noLink := Renderer{}.OrderCreated(lunch)
	assert.NotContains(t, noLink.Text, "t.me")
}

func TestOrganizerTextCards(t *testing.T) {
	price := conversation.Session{Step: conversation.StepAwaitingItemPrice, PendingItemName: "Soup"}
	c := organizerCard(testRender, router.Text{}, router.Response{Flow: &price, Reprompt: true, Problem: "price must be a number"})
	assert.True(t, strings.HasPrefix(c.Text, "❌ Price must be a number."))
	assert.Contains(t, c.Text, `"Soup"`)

	name := conversation.Session{Step: conversation.StepAwaitingItemName}
	c = organizerCard(testRender, router.Text{}, router.Response{Flow: &name, Item: &pizza})
	assert.Contains(t, c.Text, "Added Pizza (200 Toman)")

	c = organizerCard(testRender, router.Text{}, router.Response{FlowDone: true, FlowKind: conversation.FlowMenuEntry, Order: &lunch, Menu: []models.MenuItem{pizza}})
	assert.Contains(t, c.Text, "Finished adding menu items")
	assert.Contains(t, c.Text, "Pizza - 200 Toman")
	require.NotEmpty(t, c.Buttons)
	assert.Equal(t, "overview:3", c.Buttons[0][0].CallbackData)
}

func TestBillCard(t *testing.T) {
	bill := services.BillOf([]models.PricedLine{
		{UserName: "Ann", MenuID: 7, ItemName: "Pizza", Price: 200, Quantity: 1},
		{UserName: "Bob", MenuID: 8, ItemName: "Soup", Price: 150, Quantity: 2},
	})
	c := organizerCard(testRender, router.ViewBill{OrderID: 3}, router.Response{Order: &lunch, Bill: &bill})
	assert.Contains(t, c.Text, "Soup: 2 --> 300 Toman")
	assert.Contains(t, c.Text, "Total for Ann: 200 Toman")
	assert.Contains(t, c.Text, "Grand Total: 500 Toman")
	assert.Equal(t, "order:3", c.Buttons[0][0].CallbackData)
}

func TestOrderListEmpty(t *testing.T) {
	c := organizerCard(testRender, router.ListOrders{}, router.Response{})
	assert.Contains(t, c.Text, "No orders yet")
	assert.Nil(t, c.Markup())
}

func TestParticipantMenuAndItemCards(t *testing.T) {
	cart := services.Cart{OrderID: 3, Lines: []models.CartLineView{{MenuID: 8, Name: "Soup", Price: 150, Quantity: 2}}, Total: 300}
	cards := participantCards(testRender, router.ViewMenu{OrderID: 3}, router.Response{Order: &lunch, Menu: []models.MenuItem{pizza, soup}, Cart: &cart})
	require.Len(t, cards, 1)
	btns := cards[0].Buttons
	require.Len(t, btns, 3)
	assert.Equal(t, "Pizza (0)", btns[0][0].Text)
	assert.Equal(t, "Soup (2)", btns[1][0].Text)
	assert.Equal(t, "item:3:8", btns[1][0].CallbackData)
	assert.Equal(t, "send:3", btns[2][1].CallbackData)

	cards = participantCards(testRender, router.AdjustCart{OrderID: 3, MenuID: 8, Delta: 1}, router.Response{Order: &lunch, Item: &soup, Quantity: 3})
	require.Len(t, cards, 1)
	row := cards[0].Buttons[0]
	assert.Equal(t, []string{"dec:3:8", "noop", "inc:3:8"}, []string{row[0].CallbackData, row[1].CallbackData, row[2].CallbackData})
	assert.Equal(t, "3", row[1].Text)

	kb := cards[0].Markup()
	require.NotNil(t, kb)
	assert.Len(t, kb.InlineKeyboard, 2)
}

func TestParticipantRegistrationOpensMenu(t *testing.T) {
	cart := services.Cart{OrderID: 3}
	user := models.User{ID: 10, FullName: "Ann"}
	cards := participantCards(testRender, router.Text{Input: "Ann"}, router.Response{
		FlowDone: true, FlowKind: conversation.FlowNameRegistration, User: &user,
		Order: &lunch, Menu: []models.MenuItem{pizza}, Cart: &cart,
	})
	require.Len(t, cards, 2)
	assert.Equal(t, "Thanks Ann! You are registered.", cards[0].Text)
	assert.Contains(t, cards[1].Text, "Lunch")

	cards = participantCards(testRender, router.Text{Input: "Ann"}, router.Response{
		FlowDone: true, FlowKind: conversation.FlowNameRegistration, User: &user,
	})
	assert.Len(t, cards, 1, "change of name without an order only confirms")
}

func TestErrorTexts(t *testing.T) {
	assert.Equal(t, "❌ Cart is empty.", participantErrorText(services.ErrEmptyCart))
	assert.Contains(t, ErrorText(services.ErrUnauthorized), "Not authorized")
	assert.True(t, isUserError(services.ErrNotFound))
	assert.False(t, isUserError(assert.AnError))
}

func TestWriteReportCSV(t *testing.T) {
	var buf bytes.Buffer
	err := services.WriteReportCSV(&buf, []services.ReportLine{
		{MenuID: 7, Name: "Pizza", Quantity: 1, Amount: 200},
		{MenuID: 8, Name: "Soup, large", Quantity: 2, Amount: 300},
	})
	require.NoError(t, err)
	assert.Equal(t, "Item,Quantity,Total Price\nPizza,1,200\n\"Soup, large\",2,300\n", buf.String())

	name, data, err := reportFile(3, nil)
	require.NoError(t, err)
	assert.Equal(t, "report_3.csv", name)
	assert.Equal(t, "Item,Quantity,Total Price\n", string(data))
}
