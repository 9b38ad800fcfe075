package booking

import "errors"

// Outcomes of reserve and cancel. Callers match with errors.Is; the wrapped
// message carries detail for logs.
var (
	ErrSlotTaken          = errors.New("slot is already booked")
	ErrSlotInPast         = errors.New("slot has already started")
	ErrOwnerLimitExceeded = errors.New("member already holds an upcoming booking")
	ErrUnknownUser        = errors.New("user not found")
	ErrForbidden          = errors.New("not allowed to act on this booking")
	ErrNotFound           = errors.New("not found")
	ErrInvalidSlot        = errors.New("slot or court is outside the grid")
	ErrStoreBusy          = errors.New("booking store is busy")
)
