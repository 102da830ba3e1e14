// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const MaxPlayerNameLen = 36

var (
	ErrNameEmpty   = errors.New("name empty")
	ErrNameTooLong = errors.New("name too long")
)

// Player is room-scoped membership meta. SessionID ties it to the owning
// connection; the room never manages that connection's lifetime.
type Player struct {
	SessionID string `json:"-"`
	Name      string `json:"name"`
}

func ValidatePlayerName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxPlayerNameLen {
		return ErrNameTooLong
	}
	return nil
}
