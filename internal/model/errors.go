package model

import "errors"

// Common errors used across the application
var (
	// Access errors
	ErrRoomNotFound = errors.New("room not found")
	ErrAccessDenied = errors.New("wrong or missing PIN")
	ErrPINTooShort  = errors.New("PIN must be at least 4 digits")
	ErrReadOnly     = errors.New("session is read-only")
	ErrRoomFinished = errors.New("room is finished")

	// Seat errors
	ErrSeatTaken    = errors.New("seat is already claimed")
	ErrNoSeat       = errors.New("identity owns no seat in this room")
	ErrSeatNotFound = errors.New("seat not found")

	// Score errors
	ErrNoLosers     = errors.New("at least one penalized player is required")
	ErrNoBallEvents = errors.New("at least one ball event is required")
	ErrHistoryEmpty = errors.New("no history entry to undo")

	// Card errors
	ErrDeckEmpty       = errors.New("deck has no cards left")
	ErrCardNotHeld     = errors.New("player does not hold a card of that value")
	ErrMatchNotStarted = errors.New("match has not been started")
	ErrMatchDecided    = errors.New("match already has a winner")
	ErrWrongMode       = errors.New("operation not valid for this room mode")
)
