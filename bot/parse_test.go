package bot

import (
	"testing"

	"order-bot/router"
	"order-bot/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizerCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    router.Intent
		wantErr bool
	}{
		{"/neworder", router.StartOrderCreation{}, false},
		{"/neworder Friday lunch", router.CreateOrder{Title: "Friday lunch"}, false},
		{"/addmenu 5", router.StartMenuEntry{OrderID: 5}, false},
		{"/addmenu_5", router.StartMenuEntry{OrderID: 5}, false},
		{"/addmenu@lunch_admin_bot 7", router.StartMenuEntry{OrderID: 7}, false},
		{"/addmenu", nil, true},
		{"/addmenu abc", nil, true},
		{"/done", router.Text{Input: "/done"}, false},
		{"/DONE", router.Text{Input: "/DONE"}, false},
		{"/report", router.ListOrders{}, false},
		{"/myorders", router.ListOrders{Mine: true}, false},
		{"/export 3", router.ExportReport{OrderID: 3}, false},
		{"/export", nil, true},
		{"/cancel", router.Cancel{}, false},
		{"Pizza", router.Text{Input: "Pizza"}, false},
		{"/whatever", nil, true},
	}
	for _, tt := range tests {
		got, err := organizerCommand(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, services.ErrInvalidInput, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestOrganizerCallback(t *testing.T) {
	tests := []struct {
		in      string
		want    router.Intent
		wantErr bool
	}{
		{"order:4", router.ViewOrder{OrderID: 4}, false},
		{"overview:4", router.ViewSummary{OrderID: 4}, false},
		{"bill:4", router.ViewBill{OrderID: 4}, false},
		{"submitted:4", router.ViewSubmittedBill{OrderID: 4}, false},
		{"export:4", router.ExportReport{OrderID: 4}, false},
		{"back_main", router.ListOrders{}, false},
		{"order:", nil, true},
		{"order:0", nil, true},
		{"order:1:2", nil, true},
		{"item:1:2", nil, true},
	}
	for _, tt := range tests {
		got, err := organizerCallback(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParticipantMessage(t *testing.T) {
	got, err := participantMessage("/start 12")
	require.NoError(t, err)
	assert.Equal(t, router.JoinOrder{OrderID: 12}, got)

	got, err = participantMessage("/start")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = participantMessage("/start abc")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	got, err = participantMessage("/change_name")
	require.NoError(t, err)
	assert.Equal(t, router.ChangeName{}, got)

	got, err = participantMessage("Ann")
	require.NoError(t, err)
	assert.Equal(t, router.Text{Input: "Ann"}, got)
}

func TestParticipantCallbackRoundTrip(t *testing.T) {
	tests := []struct {
		data string
		want router.Intent
	}{
		{callback(cbItem, 1, 2), router.ViewItem{OrderID: 1, MenuID: 2}},
		{callback(cbInc, 1, 2), router.AdjustCart{OrderID: 1, MenuID: 2, Delta: 1}},
		{callback(cbDec, 1, 2), router.AdjustCart{OrderID: 1, MenuID: 2, Delta: -1}},
		{callback(cbBack, 1), router.ViewMenu{OrderID: 1}},
		{callback(cbViewCart, 1), router.ViewCart{OrderID: 1}},
		{callback(cbSend, 1), router.SubmitCart{OrderID: 1}},
	}
	for _, tt := range tests {
		got, err := participantCallback(tt.data)
		require.NoError(t, err, tt.data)
		assert.Equal(t, tt.want, got, tt.data)
	}

	got, err := participantCallback(cbNoop)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"inc:1", "send:1:2", "inc:x:2", "drop:1"} {
		_, err := participantCallback(bad)
		assert.Error(t, err, bad)
	}
}

func TestCallbackFitsTelegramLimit(t *testing.T) {
	const maxInt64 = int64(^uint64(0) >> 1)
	assert.LessOrEqual(t, len(callback(cbViewCart, maxInt64, maxInt64)), 64)
}
