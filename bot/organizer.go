package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"order-bot/config"
	"order-bot/conversation"
	"order-bot/events"
	"order-bot/models"
	"order-bot/router"
	"order-bot/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const organizerHelp = "👋 Welcome! Commands:\n" +
	"/neworder - create a new order\n" +
	"/addmenu <id> - add menu items to an order\n" +
	"/report - list orders and reports\n" +
	"/myorders - list only the orders you created\n" +
	"/export <id> - download the submitted orders as CSV\n" +
	"/cancel - stop the current step"

// OrganizerBot is the organizer front-end (ADMIN_TOKEN): creating orders,
// filling menus and reading reports.
type OrganizerBot struct {
	messenger
	router *router.Router
	auth   *Auth
	render Renderer
}

func NewOrganizerBot(cfg *config.Config, r *router.Router, auth *Auth) (*OrganizerBot, error) {
	m, err := newMessenger(cfg.Telegram.AdminToken, "organizer bot")
	if err != nil {
		return nil, err
	}
	return &OrganizerBot{
		messenger: m,
		router:    r,
		auth:      auth,
		render:    Renderer{Currency: cfg.Telegram.Currency, UserBotUsername: cfg.Telegram.UserBotUsername},
	}, nil
}

// Start handles updates until ctx is cancelled.
func (b *OrganizerBot) Start(ctx context.Context) {
	for update := range b.updates(ctx) {
		if update.CallbackQuery != nil {
			b.handleCallback(ctx, update.CallbackQuery)
			continue
		}
		if update.Message == nil || update.Message.From == nil {
			continue
		}
		b.handleMessage(ctx, update.Message)
	}
}

// NotifySubmitted tells the order's organizer about a submission. It is the
// cart.submitted consumer handler.
func (b *OrganizerBot) NotifySubmitted(_ context.Context, ev events.CartSubmitted) error {
	if ev.OrganizerID == 0 {
		return nil
	}
	return b.sendParts(ev.OrganizerID, splitText(b.render.Submitted(ev), maxMessageLen), nil)
}

func (b *OrganizerBot) actor(ctx context.Context, from *tgbotapi.User) (models.Actor, error) {
	return withRetry(ctx, "resolve organizer", services.IsTransient, func(ctx context.Context) (models.Actor, error) {
		return b.auth.Actor(ctx, from.ID, from.UserName)
	})
}

func (b *OrganizerBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	cmd, arg := splitCommand(text)

	if cmd == "/login" {
		b.login(ctx, chatID, msg.From.ID, arg)
		return
	}
	actor, err := b.actor(ctx, msg.From)
	if err != nil {
		log.Printf("organizer bot: %v", err)
		b.send(chatID, ErrorText(err))
		return
	}
	if !actor.IsOrganizer() {
		b.send(chatID, "⛔ You are not authorized to use this bot. Use /login <password> if you have one.")
		return
	}
	if cmd == "/start" || cmd == "/help" {
		b.send(chatID, organizerHelp)
		return
	}

	intent, err := organizerCommand(text)
	if err != nil {
		b.send(chatID, "❓ Unknown command.\n\n"+organizerHelp)
		return
	}
	resp, err := b.dispatch(ctx, actor, intent)
	if err != nil {
		b.send(chatID, ErrorText(err))
		return
	}
	if ex, ok := intent.(router.ExportReport); ok {
		b.sendReport(chatID, ex.OrderID, resp)
		return
	}
	b.sendCard(chatID, organizerCard(b.render, intent, resp))
}

func (b *OrganizerBot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		b.answer(cq.ID, "", false)
		return
	}
	chatID, messageID := cq.Message.Chat.ID, cq.Message.MessageID
	actor, err := b.actor(ctx, cq.From)
	if err != nil {
		b.answer(cq.ID, ErrorText(err), true)
		return
	}
	intent, err := organizerCallback(cq.Data)
	if err != nil {
		log.Printf("organizer bot: callback %q: %v", cq.Data, err)
		b.answer(cq.ID, "", false)
		return
	}
	resp, err := b.dispatch(ctx, actor, intent)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			b.answer(cq.ID, "📭 No orders yet.", true)
			return
		}
		b.answer(cq.ID, ErrorText(err), true)
		return
	}
	b.answer(cq.ID, "", false)
	if ex, ok := intent.(router.ExportReport); ok {
		b.sendReport(chatID, ex.OrderID, resp)
		return
	}
	b.editCard(chatID, messageID, organizerCard(b.render, intent, resp))
}

func (b *OrganizerBot) dispatch(ctx context.Context, actor models.Actor, intent router.Intent) (router.Response, error) {
	resp, err := withRetry(ctx, fmt.Sprintf("organizer %T", intent), retryable(intent), func(ctx context.Context) (router.Response, error) {
		return b.router.Dispatch(ctx, actor, intent)
	})
	if err != nil && !isUserError(err) {
		log.Printf("organizer bot: %T by %d: %v", intent, actor.ID, err)
	}
	return resp, err
}

func (b *OrganizerBot) sendReport(chatID, orderID int64, resp router.Response) {
	name, data, err := reportFile(orderID, resp.Report)
	if err != nil {
		log.Printf("organizer bot: export %d: %v", orderID, err)
		b.send(chatID, ErrorText(err))
		return
	}
	caption := fmt.Sprintf("📄 %s: total %s", resp.Order.Title, b.render.money(services.ReportTotal(resp.Report)))
	if err := b.sendDocument(chatID, name, data, caption); err != nil {
		log.Printf("organizer bot: send document: %v", err)
		b.send(chatID, ErrorText(err))
	}
}

func (b *OrganizerBot) login(ctx context.Context, chatID, userID int64, password string) {
	if password == "" {
		b.send(chatID, "Usage: /login <password>")
		return
	}
	res, err := withRetry(ctx, "organizer login", services.SafeToRetry, func(ctx context.Context) (LoginResult, error) {
		return b.auth.Login(ctx, userID, password)
	})
	switch {
	case err != nil:
		log.Printf("organizer bot: login %d: %v", userID, err)
		b.send(chatID, ErrorText(err))
	case res.Disabled:
		b.send(chatID, "🔒 Password login is disabled.")
	case res.WaitSeconds > 0:
		b.send(chatID, fmt.Sprintf("⏳ Too many attempts. Try again in %d seconds.", res.WaitSeconds))
	case !res.OK:
		b.send(chatID, "❌ Wrong password.")
	default:
		b.send(chatID, "✅ Logged in.\n\n"+organizerHelp)
	}
}

// isUserError reports errors caused by the request rather than the system.
func isUserError(err error) bool {
	for _, target := range []error{services.ErrInvalidInput, services.ErrNotFound, services.ErrUnauthorized,
		services.ErrEmptyCart, services.ErrNoActiveFlow} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// organizerCard renders the reply to a successful organizer intent.
func organizerCard(r Renderer, intent router.Intent, resp router.Response) Card {
	switch intent.(type) {
	case router.StartOrderCreation, router.StartMenuEntry:
		return Card{Text: Prompt(*resp.Flow)}
	case router.CreateOrder:
		return r.OrderCreated(*resp.Order)
	case router.AddMenuItem:
		return Card{Text: r.ItemAdded(*resp.Item)}
	case router.ListOrders:
		return r.OrderList(resp.Orders)
	case router.ViewOrder:
		return r.OrderMenu(*resp.Order, resp.Menu)
	case router.FinishMenuEntry:
		c := r.OrderMenu(*resp.Order, resp.Menu)
		c.Text = "✅ Finished adding menu items.\n\n" + c.Text
		return c
	case router.ViewSummary:
		return r.Overview(*resp.Order, *resp.Summary)
	case router.ViewBill:
		return r.Bill("💰 Invoice / Bill", *resp.Order, *resp.Bill)
	case router.ViewSubmittedBill:
		return r.Bill("📦 Submitted orders", *resp.Order, *resp.Bill)
	case router.Cancel:
		if resp.Cancelled {
			return Card{Text: "🚫 Cancelled."}
		}
		return Card{Text: "Nothing to cancel."}
	case router.Text:
		return organizerTextCard(r, resp)
	}
	return Card{Text: organizerHelp}
}

func organizerTextCard(r Renderer, resp router.Response) Card {
	if resp.Reprompt {
		return Card{Text: Reprompt(*resp.Flow, resp.Problem)}
	}
	if !resp.FlowDone {
		text := Prompt(*resp.Flow)
		if resp.Item != nil {
			text = r.ItemAdded(*resp.Item)
		}
		return Card{Text: text}
	}
	switch resp.FlowKind {
	case conversation.FlowOrderCreation:
		return r.OrderCreated(*resp.Order)
	case conversation.FlowMenuEntry:
		c := r.OrderMenu(*resp.Order, resp.Menu)
		c.Text = "✅ Finished adding menu items.\n\n" + c.Text
		return c
	}
	return Card{Text: "✅ Done."}
}
