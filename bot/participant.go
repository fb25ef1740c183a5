package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	"order-bot/config"
	"order-bot/conversation"
	"order-bot/models"
	"order-bot/router"
	"order-bot/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const participantWelcome = "👋 Welcome! Open an invite link from the organizer to start ordering."

// ParticipantBot is the participant front-end (USER_TOKEN): browsing a menu,
// filling the cart and sending it.
type ParticipantBot struct {
	messenger
	router *router.Router
	render Renderer
}

func NewParticipantBot(cfg *config.Config, r *router.Router) (*ParticipantBot, error) {
	m, err := newMessenger(cfg.Telegram.UserToken, "participant bot")
	if err != nil {
		return nil, err
	}
	return &ParticipantBot{
		messenger: m,
		router:    r,
		render:    Renderer{Currency: cfg.Telegram.Currency, UserBotUsername: cfg.Telegram.UserBotUsername},
	}, nil
}

func (b *ParticipantBot) Start(ctx context.Context) {
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

func participantActor(from *tgbotapi.User) models.Actor {
	return models.Actor{ID: from.ID, Role: models.RoleParticipant, Handle: from.UserName}
}

func (b *ParticipantBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	intent, err := participantMessage(msg.Text)
	if err != nil || intent == nil {
		b.send(chatID, participantWelcome)
		return
	}
	resp, err := b.dispatch(ctx, participantActor(msg.From), intent)
	if err != nil {
		b.send(chatID, participantErrorText(err))
		return
	}
	for _, c := range participantCards(b.render, intent, resp) {
		b.sendCard(chatID, c)
	}
}

func (b *ParticipantBot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	intent, err := participantCallback(cq.Data)
	if err != nil || intent == nil || cq.Message == nil {
		b.answer(cq.ID, "", false)
		return
	}
	resp, err := b.dispatch(ctx, participantActor(cq.From), intent)
	if err != nil {
		b.answer(cq.ID, participantErrorText(err), true)
		return
	}
	note := ""
	if _, ok := intent.(router.SubmitCart); ok {
		note = "Order finalized!"
	}
	b.answer(cq.ID, note, false)
	cards := participantCards(b.render, intent, resp)
	if len(cards) > 0 {
		b.editCard(cq.Message.Chat.ID, cq.Message.MessageID, cards[0])
	}
}

func (b *ParticipantBot) dispatch(ctx context.Context, actor models.Actor, intent router.Intent) (router.Response, error) {
	resp, err := withRetry(ctx, fmt.Sprintf("participant %T", intent), retryable(intent), func(ctx context.Context) (router.Response, error) {
		return b.router.Dispatch(ctx, actor, intent)
	})
	if err != nil && !isUserError(err) {
		log.Printf("participant bot: %T by %d: %v", intent, actor.ID, err)
	}
	return resp, err
}

func participantErrorText(err error) string {
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		return "❌ Cart is empty."
	case errors.Is(err, services.ErrNoActiveFlow):
		return "Use the menu buttons to order, or /change_name to change your name."
	}
	return ErrorText(err)
}

// participantCards renders the replies to a successful participant intent, in
// send order. Callbacks edit the message in place with the first card.
func participantCards(r Renderer, intent router.Intent, resp router.Response) []Card {
	switch intent.(type) {
	case router.JoinOrder:
		if resp.Flow != nil {
			return []Card{{Text: "Welcome! " + Prompt(*resp.Flow)}}
		}
		return []Card{r.Menu(*resp.Order, resp.Menu, *resp.Cart)}
	case router.ChangeName:
		return []Card{{Text: "Please send your new name:"}}
	case router.ViewMenu:
		return []Card{r.Menu(*resp.Order, resp.Menu, *resp.Cart)}
	case router.ViewItem, router.AdjustCart:
		return []Card{r.Item(*resp.Order, *resp.Item, resp.Quantity)}
	case router.ViewCart:
		return []Card{r.Cart(*resp.Order, *resp.Cart)}
	case router.SubmitCart:
		return []Card{r.SubmissionDone(*resp.Submission)}
	case router.Cancel:
		if resp.Cancelled {
			return []Card{{Text: "🚫 Cancelled."}}
		}
		return []Card{{Text: "Nothing to cancel."}}
	case router.Text:
		if resp.Reprompt {
			return []Card{{Text: Reprompt(*resp.Flow, resp.Problem)}}
		}
		if !resp.FlowDone {
			return []Card{{Text: Prompt(*resp.Flow)}}
		}
		if resp.FlowKind == conversation.FlowNameRegistration && resp.User != nil {
			cards := []Card{{Text: fmt.Sprintf("Thanks %s! You are registered.", resp.User.FullName)}}
			if resp.Order != nil && resp.Cart != nil {
				cards = append(cards, r.Menu(*resp.Order, resp.Menu, *resp.Cart))
			}
			return cards
		}
	}
	return nil
}
