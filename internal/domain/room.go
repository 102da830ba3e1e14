package domain

import "strings"

const (
	RoomCodeLen      = 6
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RoomCode addresses one live room. Codes are uppercase alphanumeric and
// case-insensitive on input; always normalize before lookup.
type RoomCode string

func NormalizeRoomCode(raw string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(raw)))
}

func (c RoomCode) Valid() bool {
	if len(c) != RoomCodeLen {
		return false
	}
	for _, r := range c {
		if !strings.ContainsRune(RoomCodeAlphabet, r) {
			return false
		}
	}
	return true
}
