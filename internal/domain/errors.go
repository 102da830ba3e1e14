package domain

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotMember    = errors.New("not a member of this room")
	ErrInvalidScore = errors.New("score must be a finite number")
	ErrRateLimited  = errors.New("too many room requests")
)
