package bot

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// messenger wraps the telegram API calls shared by both bots.
type messenger struct {
	api  *tgbotapi.BotAPI
	name string // log prefix
}

func newMessenger(token, name string) (messenger, error) {
	if token == "" {
		return messenger{}, fmt.Errorf("%s: token not set", name)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return messenger{}, fmt.Errorf("%s: %w", name, err)
	}
	log.Printf("%s: authorized as @%s", name, api.Self.UserName)
	return messenger{api: api, name: name}, nil
}

// updates streams updates until ctx is done.
func (m messenger) updates(ctx context.Context) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	ch := m.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		m.api.StopReceivingUpdates()
	}()
	return ch
}

func (m messenger) send(chatID int64, text string) {
	m.sendCard(chatID, Card{Text: text})
}

// sendCard sends c, split into several messages when the text is over the
// telegram limit. The keyboard goes with the last part.
func (m messenger) sendCard(chatID int64, c Card) {
	if err := m.sendParts(chatID, splitText(c.Text, maxMessageLen), c.Markup()); err != nil {
		log.Printf("%s send error: %v", m.name, err)
	}
}

func (m messenger) sendParts(chatID int64, parts []string, kb *tgbotapi.InlineKeyboardMarkup) error {
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if kb != nil && i == len(parts)-1 {
			msg.ReplyMarkup = *kb
		}
		if _, err := m.api.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// editCard replaces a message in place, as buttons navigate between views.
// A card too long for one message edits in the first part and sends the rest.
func (m messenger) editCard(chatID int64, messageID int, c Card) {
	parts := splitText(c.Text, maxMessageLen)
	kb := c.Markup()
	var edit tgbotapi.EditMessageTextConfig
	if kb != nil && len(parts) == 1 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, parts[0], *kb)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, parts[0])
	}
	if _, err := m.api.Send(edit); err != nil {
		log.Printf("%s edit error: %v", m.name, err)
		return
	}
	if len(parts) > 1 {
		if err := m.sendParts(chatID, parts[1:], kb); err != nil {
			log.Printf("%s send error: %v", m.name, err)
		}
	}
}

func (m messenger) answer(callbackID, text string, alert bool) {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	if _, err := m.api.Request(cb); err != nil {
		log.Printf("%s callback answer error: %v", m.name, err)
	}
}

func (m messenger) sendDocument(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	_, err := m.api.Send(doc)
	return err
}
