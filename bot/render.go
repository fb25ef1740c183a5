package bot

import (
	"errors"
	"fmt"
	"strings"

	"order-bot/conversation"
	"order-bot/events"
	"order-bot/models"
	"order-bot/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Button is one inline button (text + callback_data or url).
type Button struct {
	Text         string
	CallbackData string
	URL          string // if set, use as URL button instead of callback
}

// Card is the text and optional inline keyboard of one bot reply.
type Card struct {
	Text    string
	Buttons [][]Button
}

// Markup converts the buttons to a telegram keyboard, nil when there are none.
func (c Card) Markup() *tgbotapi.InlineKeyboardMarkup {
	if len(c.Buttons) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(c.Buttons))
	for _, r := range c.Buttons {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			if b.URL != "" {
				row = append(row, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
			}
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// Renderer turns router responses into cards.
type Renderer struct {
	Currency        string
	UserBotUsername string
}

func (r Renderer) money(v int64) string {
	if r.Currency == "" {
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("%d %s", v, r.Currency)
}

// InviteLink is the participant bot deep link for an order, empty when the
// participant bot username is not configured.
func (r Renderer) InviteLink(orderID int64) string {
	if r.UserBotUsername == "" {
		return ""
	}
	return fmt.Sprintf("https://t.me/%s?start=%d", r.UserBotUsername, orderID)
}

// Prompt is the question asked at a conversation step.
func Prompt(s conversation.Session) string {
	switch s.Step {
	case conversation.StepAwaitingTitle:
		return "📌 Please send the title for the new order:"
	case conversation.StepAwaitingItemName:
		return "📌 Send the name of the menu item, or /done to finish:"
	case conversation.StepAwaitingItemPrice:
		return fmt.Sprintf("💰 Now send the price of %q:", s.PendingItemName)
	case conversation.StepAwaitingName:
		return "Please send your name:"
	}
	return ""
}

// Reprompt explains the rejected input and asks again.
func Reprompt(s conversation.Session, problem string) string {
	return "❌ " + capitalize(problem) + ".\n" + Prompt(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ErrorText maps core errors onto user-facing messages.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return "⛔ Not authorized."
	case errors.Is(err, services.ErrEmptyCart):
		return "📭 Nothing here yet."
	case errors.Is(err, services.ErrNotFound):
		return "❓ Not found. The order or item may no longer exist."
	case errors.Is(err, services.ErrNoActiveFlow):
		return "🤷 Nothing in progress. Use the buttons or a command."
	case errors.Is(err, services.ErrInvalidInput):
		return "❌ That doesn't look right. Please check and try again."
	case services.IsTransient(err):
		return "⏳ The service is busy, please try again in a moment."
	}
	return "⚠️ Something went wrong, please try again later."
}

func (r Renderer) OrderCreated(o models.Order) Card {
	text := fmt.Sprintf("✅ Order created: %s\n", o.Title)
	if link := r.InviteLink(o.ID); link != "" {
		text += fmt.Sprintf("🔗 Invite link for users: %s\n", link)
	}
	text += fmt.Sprintf("\nUse /addmenu %d to add menu items.", o.ID)
	return Card{Text: text}
}

func (r Renderer) ItemAdded(it models.MenuItem) string {
	return fmt.Sprintf("✅ Added %s (%s). Send another item name or /done to finish.", it.Name, r.money(it.Price))
}

func (r Renderer) OrderList(orders []models.Order) Card {
	if len(orders) == 0 {
		return Card{Text: "📭 No orders yet. Use /neworder to create one."}
	}
	c := Card{Text: "📋 Select an order to view:"}
	for _, o := range orders {
		c.Buttons = append(c.Buttons, []Button{{Text: fmt.Sprintf("#%d %s", o.ID, o.Title), CallbackData: callback(cbOrder, o.ID)}})
	}
	return c
}

// OrderMenu is the organizer's view of one order: its menu and report buttons.
func (r Renderer) OrderMenu(o models.Order, menu []models.MenuItem) Card {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s (#%d)\n", o.Title, o.ID)
	if len(menu) == 0 {
		fmt.Fprintf(&b, "\n🍽 No menu yet. Use /addmenu %d.\n", o.ID)
	} else {
		b.WriteString("\n")
		for _, it := range menu {
			fmt.Fprintf(&b, "• %s - %s\n", it.Name, r.money(it.Price))
		}
	}
	if link := r.InviteLink(o.ID); link != "" {
		fmt.Fprintf(&b, "\n🔗 %s", link)
	}
	return Card{Text: strings.TrimRight(b.String(), "\n"), Buttons: [][]Button{
		{{Text: "📝 Order Overview", CallbackData: callback(cbOverview, o.ID)}},
		{{Text: "💰 Invoice / Bill", CallbackData: callback(cbBill, o.ID)}},
		{{Text: "📦 Submitted Orders", CallbackData: callback(cbSubmitted, o.ID)}},
		{{Text: "📄 Export CSV", CallbackData: callback(cbExport, o.ID)}},
		{{Text: "🔙 Back to Main", CallbackData: cbBackMain}},
	}}
}

func backToOrder(orderID int64) [][]Button {
	return [][]Button{{{Text: "🔙 Back to Order Menu", CallbackData: callback(cbOrder, orderID)}}}
}

func (r Renderer) Overview(o models.Order, s services.Summary) Card {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 Order Overview: %s\n\n", o.Title)
	for _, u := range s.Users {
		fmt.Fprintf(&b, "👤 %s:\n", u.Name)
		for _, it := range u.Items {
			fmt.Fprintf(&b, "   - %s: %d\n", it.Name, it.Quantity)
		}
		b.WriteString("\n")
	}
	b.WriteString("📊 Total per item:\n")
	for _, it := range s.Totals {
		fmt.Fprintf(&b, "   - %s: %d\n", it.Name, it.Quantity)
	}
	return Card{Text: strings.TrimRight(b.String(), "\n"), Buttons: backToOrder(o.ID)}
}

func (r Renderer) Bill(title string, o models.Order, bill services.Bill) Card {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n\n", title, o.Title)
	for _, u := range bill.Users {
		fmt.Fprintf(&b, "👤 %s\n", u.Name)
		for _, it := range u.Items {
			fmt.Fprintf(&b, "  - %s: %d --> %s\n", it.Name, it.Quantity, r.money(it.Amount))
		}
		fmt.Fprintf(&b, "  ➤ Total for %s: %s\n\n", u.Name, r.money(u.Subtotal))
	}
	fmt.Fprintf(&b, "💵 Grand Total: %s", r.money(bill.GrandTotal))
	return Card{Text: b.String(), Buttons: backToOrder(o.ID)}
}

func (r Renderer) Submitted(ev events.CartSubmitted) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📥 %s submitted an order for %s:\n", ev.UserName, ev.OrderTitle)
	for _, it := range ev.Items {
		fmt.Fprintf(&b, "  - %s x%d\n", it.Name, it.Quantity)
	}
	fmt.Fprintf(&b, "💰 Total: %s", r.money(ev.Total))
	return b.String()
}

// Menu is the participant's main view: every item with the current quantity.
func (r Renderer) Menu(o models.Order, menu []models.MenuItem, cart services.Cart) Card {
	if len(menu) == 0 {
		return Card{Text: "🍽 No menu yet."}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s\n\n", o.Title)
	c := Card{}
	for _, it := range menu {
		fmt.Fprintf(&b, "%q - %s\n", it.Name, r.money(it.Price))
		c.Buttons = append(c.Buttons, []Button{{
			Text:         fmt.Sprintf("%s (%d)", it.Name, cart.Quantity(it.ID)),
			CallbackData: callback(cbItem, o.ID, it.ID),
		}})
	}
	c.Buttons = append(c.Buttons, []Button{
		{Text: "🛒 View Cart", CallbackData: callback(cbViewCart, o.ID)},
		{Text: "📤 Send Order", CallbackData: callback(cbSend, o.ID)},
	})
	c.Text = strings.TrimRight(b.String(), "\n")
	return c
}

func backToMenu(orderID int64) []Button {
	return []Button{{Text: "🔙 Back to Menu", CallbackData: callback(cbBack, orderID)}}
}

// Item is one menu item with -/+ buttons around the current quantity.
func (r Renderer) Item(o models.Order, it models.MenuItem, qty int64) Card {
	return Card{
		Text: fmt.Sprintf("%q - %s\n\nQuantity ordered: %d", it.Name, r.money(it.Price), qty),
		Buttons: [][]Button{
			{
				{Text: "➖", CallbackData: callback(cbDec, o.ID, it.ID)},
				{Text: fmt.Sprintf("%d", qty), CallbackData: cbNoop},
				{Text: "➕", CallbackData: callback(cbInc, o.ID, it.ID)},
			},
			backToMenu(o.ID),
		},
	}
}

func (r Renderer) Cart(o models.Order, cart services.Cart) Card {
	if cart.Empty() {
		return Card{Text: "🛒 Your cart is empty.", Buttons: [][]Button{backToMenu(o.ID)}}
	}
	var b strings.Builder
	b.WriteString("🛒 Your Cart:\n\n")
	for _, l := range cart.Lines {
		fmt.Fprintf(&b, "%s (%d) --> %s\n", l.Name, l.Quantity, r.money(l.LineTotal()))
	}
	fmt.Fprintf(&b, "\n💰 Total: %s", r.money(cart.Total))
	return Card{Text: b.String(), Buttons: [][]Button{
		{{Text: "📤 Send Order", CallbackData: callback(cbSend, o.ID)}},
		backToMenu(o.ID),
	}}
}

func (r Renderer) SubmissionDone(s services.Submission) Card {
	return Card{
		Text:    fmt.Sprintf("Thank you!\nYour order was sent to the organizer.\n💰 Total: %s\nEnjoy it :)", r.money(s.Total)),
		Buttons: [][]Button{backToMenu(s.Order.ID)},
	}
}
