package core

import "github.com/aman-kumar02/Playworld/internal/domain"

// Frame is an encoded outbound payload, ready for the wire.
type Frame []byte

type SessionID string

// SignalConnection abstracts the per-connection messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// RoomInfo is a read-only view for APIs (no transport fields).
type RoomInfo struct {
	Code        domain.RoomCode `json:"code"`
	PlayerCount int             `json:"player_count"`
}

// ScoreTable maps player display name to that player's latest score.
type ScoreTable map[string]float64
