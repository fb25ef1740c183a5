package bot

import (
	"fmt"
	"strconv"
	"strings"

	"order-bot/router"
	"order-bot/services"
)

// Callback data prefixes. Telegram limits callback data to 64 bytes, which
// two int64 ids and a short prefix fit comfortably.
const (
	cbOrder     = "order"
	cbOverview  = "overview"
	cbBill      = "bill"
	cbSubmitted = "submitted"
	cbExport    = "export"
	cbBackMain  = "back_main"

	cbItem     = "item"
	cbInc      = "inc"
	cbDec      = "dec"
	cbBack     = "back"
	cbViewCart = "viewcart"
	cbSend     = "send"
	cbNoop     = "noop"
)

func callback(prefix string, ids ...int64) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, id := range ids {
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

// errUnknown marks input no intent matches.
var errUnknown = fmt.Errorf("%w: unknown command", services.ErrInvalidInput)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed id %q", services.ErrInvalidInput, s)
	}
	return id, nil
}

// splitCallback splits "prefix:1:2" and parses exactly n ids.
func splitCallback(data string, n int) (string, []int64, error) {
	parts := strings.Split(data, ":")
	if len(parts) != n+1 {
		return "", nil, fmt.Errorf("%w: malformed callback %q", services.ErrInvalidInput, data)
	}
	ids := make([]int64, n)
	for i := range ids {
		id, err := parseID(parts[i+1])
		if err != nil {
			return "", nil, err
		}
		ids[i] = id
	}
	return parts[0], ids, nil
}

func callbackPrefix(data string) string {
	prefix, _, _ := strings.Cut(data, ":")
	return prefix
}

// splitCommand returns the command without the bot mention and its argument.
// "/addmenu_5" is accepted as "/addmenu 5".
func splitCommand(text string) (cmd, arg string) {
	text = strings.TrimSpace(text)
	cmd, arg, _ = strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	cmd = strings.ToLower(cmd)
	if base, id, ok := strings.Cut(cmd, "_"); ok && base == "/addmenu" {
		return base, id
	}
	return cmd, strings.TrimSpace(arg)
}

// organizerCommand parses a command of the organizer bot. Plain text (no
// leading slash) and the finish sentinel become Text and go to the active flow.
func organizerCommand(text string) (router.Intent, error) {
	if !strings.HasPrefix(strings.TrimSpace(text), "/") {
		return router.Text{Input: text}, nil
	}
	cmd, arg := splitCommand(text)
	switch cmd {
	case "/neworder":
		if arg != "" {
			return router.CreateOrder{Title: arg}, nil
		}
		return router.StartOrderCreation{}, nil
	case "/addmenu":
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		return router.StartMenuEntry{OrderID: id}, nil
	case "/done":
		return router.Text{Input: text}, nil
	case "/report", "/orders":
		return router.ListOrders{}, nil
	case "/myorders":
		return router.ListOrders{Mine: true}, nil
	case "/export":
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		return router.ExportReport{OrderID: id}, nil
	case "/cancel":
		return router.Cancel{}, nil
	}
	return nil, errUnknown
}

func organizerCallback(data string) (router.Intent, error) {
	if data == cbBackMain {
		return router.ListOrders{}, nil
	}
	prefix, ids, err := splitCallback(data, 1)
	if err != nil {
		return nil, err
	}
	switch prefix {
	case cbOrder:
		return router.ViewOrder{OrderID: ids[0]}, nil
	case cbOverview:
		return router.ViewSummary{OrderID: ids[0]}, nil
	case cbBill:
		return router.ViewBill{OrderID: ids[0]}, nil
	case cbSubmitted:
		return router.ViewSubmittedBill{OrderID: ids[0]}, nil
	case cbExport:
		return router.ExportReport{OrderID: ids[0]}, nil
	}
	return nil, errUnknown
}

// participantMessage parses a participant message. "/start" without an order
// returns nil, nil: there is nothing to route, only a greeting to send.
func participantMessage(text string) (router.Intent, error) {
	if !strings.HasPrefix(strings.TrimSpace(text), "/") {
		return router.Text{Input: text}, nil
	}
	cmd, arg := splitCommand(text)
	switch cmd {
	case "/start":
		if arg == "" {
			return nil, nil
		}
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		return router.JoinOrder{OrderID: id}, nil
	case "/change_name":
		return router.ChangeName{}, nil
	case "/cancel":
		return router.Cancel{}, nil
	}
	return nil, errUnknown
}

// participantCallback parses button presses. noop returns nil, nil.
func participantCallback(data string) (router.Intent, error) {
	if data == cbNoop {
		return nil, nil
	}
	switch callbackPrefix(data) {
	case cbItem, cbInc, cbDec:
		prefix, ids, err := splitCallback(data, 2)
		if err != nil {
			return nil, err
		}
		switch prefix {
		case cbInc:
			return router.AdjustCart{OrderID: ids[0], MenuID: ids[1], Delta: 1}, nil
		case cbDec:
			return router.AdjustCart{OrderID: ids[0], MenuID: ids[1], Delta: -1}, nil
		}
		return router.ViewItem{OrderID: ids[0], MenuID: ids[1]}, nil
	case cbBack, cbViewCart, cbSend:
		prefix, ids, err := splitCallback(data, 1)
		if err != nil {
			return nil, err
		}
		switch prefix {
		case cbViewCart:
			return router.ViewCart{OrderID: ids[0]}, nil
		case cbSend:
			return router.SubmitCart{OrderID: ids[0]}, nil
		}
		return router.ViewMenu{OrderID: ids[0]}, nil
	}
	return nil, errUnknown
}
