package bot

import (
	"context"
	"fmt"

	"order-bot/models"
	"order-bot/services"
	"order-bot/store"
)

// Auth decides who is an organizer: the static ADMIN_IDS list or anyone who
// logged in with the organizer password (persisted in the store).
type Auth struct {
	static       map[int64]bool
	store        store.OrganizerStore
	passwordHash string
}

func NewAuth(ids []int64, s store.OrganizerStore, passwordHash string) *Auth {
	static := make(map[int64]bool, len(ids))
	for _, id := range ids {
		static[id] = true
	}
	return &Auth{static: static, store: s, passwordHash: passwordHash}
}

// Actor resolves the organizer bot identity of a telegram user.
func (a *Auth) Actor(ctx context.Context, tgUserID int64, handle string) (models.Actor, error) {
	actor := models.Actor{ID: tgUserID, Handle: handle, Role: models.RoleParticipant}
	if a.static[tgUserID] {
		actor.Role = models.RoleOrganizer
		return actor, nil
	}
	ok, err := a.store.IsOrganizer(ctx, tgUserID)
	if err != nil {
		return actor, fmt.Errorf("check organizer: %w", err)
	}
	if ok {
		actor.Role = models.RoleOrganizer
	}
	return actor, nil
}

// LoginResult tells the organizer bot what to answer to /login.
type LoginResult struct {
	OK          bool
	WaitSeconds int // >0: throttled, try again later
	Disabled    bool
}

// Login checks password with throttling: each failure doubles the cooldown,
// capped at store.ThrottleCooldownCapSeconds. Success grants the organizer role.
func (a *Auth) Login(ctx context.Context, tgUserID int64, password string) (LoginResult, error) {
	if a.passwordHash == "" {
		return LoginResult{Disabled: true}, nil
	}
	wait, err := a.store.LoginWaitSeconds(ctx, tgUserID, store.ThrottleRoleOrganizer)
	if err != nil {
		return LoginResult{}, err
	}
	if wait > 0 {
		return LoginResult{WaitSeconds: wait}, nil
	}
	if !services.CheckPassword(a.passwordHash, password) {
		if err := a.store.RecordLoginFailed(ctx, tgUserID, store.ThrottleRoleOrganizer); err != nil {
			return LoginResult{}, err
		}
		return LoginResult{}, nil
	}
	if err := a.store.RecordLoginSuccess(ctx, tgUserID, store.ThrottleRoleOrganizer); err != nil {
		return LoginResult{}, err
	}
	if err := a.store.AddOrganizer(ctx, tgUserID); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{OK: true}, nil
}
