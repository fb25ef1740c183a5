package models

type Role string

const (
	RoleOrganizer   Role = "organizer"
	RoleParticipant Role = "participant"
)

// Actor is an already-authenticated chat identity as seen by the core.
type Actor struct {
	ID     int64
	Role   Role
	Handle string // telegram username, may be empty
}

func (a Actor) IsOrganizer() bool {
	return a.Role == RoleOrganizer
}
