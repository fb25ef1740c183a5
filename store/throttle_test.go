package store

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestCooldownSecondsForFailCount(t *testing.T) {
	tests := []struct {
		failCount int
		want      int
	}{
		{0, 1},    // 2^0=1
		{1, 2},    // 2^1=2
		{2, 4},    // 2^2=4
		{3, 8},    // 2^3=8
		{4, 16},   // 2^4=16
		{5, 30},   // 2^5=32 -> cap 30
		{6, 30},   // 2^6=64 -> cap 30
		{100, 30}, // overflow -> cap 30
	}
	for _, tt := range tests {
		got := CooldownSecondsForFailCount(tt.failCount)
		if got != tt.want {
			t.Errorf("CooldownSecondsForFailCount(%d) = %d, want %d", tt.failCount, got, tt.want)
		}
	}
}

func TestWaitSeconds(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := func(d time.Duration) *time.Time { at := now.Add(d); return &at }
	tests := []struct {
		until *time.Time
		want  int
	}{
		{nil, 0},
		{in(-time.Second), 0},
		{in(0), 0},
		{in(2 * time.Second), 2},
		{in(1500 * time.Millisecond), 2},
	}
	for _, tt := range tests {
		if got := waitSeconds(tt.until, now); got != tt.want {
			t.Errorf("waitSeconds(%v) = %d, want %d", tt.until, got, tt.want)
		}
	}
}

func testThrottle(t *testing.T, s OrganizerStore) {
	t.Helper()
	ctx := context.Background()
	const testUserID int64 = 999999997
	role := ThrottleRoleOrganizer

	// Cleanup: reset throttle for test user so tests are independent
	defer func() {
		_ = s.RecordLoginSuccess(ctx, testUserID, role)
	}()

	// 1) Success resets cooldown
	_ = s.RecordLoginSuccess(ctx, testUserID, role)
	wait, err := s.LoginWaitSeconds(ctx, testUserID, role)
	if err != nil {
		t.Fatalf("LoginWaitSeconds after success: %v", err)
	}
	if wait != 0 {
		t.Errorf("after success: wait = %d, want 0", wait)
	}

	// 2) Failed attempt sets cooldown
	if err := s.RecordLoginFailed(ctx, testUserID, role); err != nil {
		t.Fatalf("RecordLoginFailed: %v", err)
	}
	wait, err = s.LoginWaitSeconds(ctx, testUserID, role)
	if err != nil {
		t.Fatalf("LoginWaitSeconds after fail: %v", err)
	}
	if wait <= 0 || wait > 2 {
		t.Errorf("after 1 fail: wait = %d, want 1..2", wait)
	}

	// 3) Further failures grow the cooldown
	for i := 0; i < 3; i++ {
		_ = s.RecordLoginFailed(ctx, testUserID, role)
	}
	wait, _ = s.LoginWaitSeconds(ctx, testUserID, role)
	if wait <= 2 {
		t.Errorf("after 4 fails: wait = %d, want > 2", wait)
	}

	// 4) Success clears it again
	_ = s.RecordLoginSuccess(ctx, testUserID, role)
	wait, _ = s.LoginWaitSeconds(ctx, testUserID, role)
	if wait != 0 {
		t.Errorf("after success: wait = %d, want 0", wait)
	}
}

func TestLoginThrottle_Memory(t *testing.T) {
	testThrottle(t, NewMemory())
}

// Integration tests for throttle (require DB). Skip without TEST_DATABASE_URL or with -short.
func TestLoginThrottle_Integration(t *testing.T) {
	if testing.Short() || os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("skipping throttle integration test: no DB")
	}
	testThrottle(t, openTestPostgres(t))
}
