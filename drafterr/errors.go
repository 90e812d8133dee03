package drafterr

import "errors"

// Room and seat sentinel errors. Shared by the room, api and ws packages to
// avoid circular imports.
var (
	ErrUnknownRoom     = errors.New("room not found")
	ErrDuplicateName   = errors.New("name already taken in this room")
	ErrBadSecret       = errors.New("incorrect room password")
	ErrUnknownPlayer   = errors.New("player is not seated in this room")
	ErrNotHost         = errors.New("only the host can start the draft")
	ErrDraftInProgress = errors.New("draft already in progress")
	ErrNoDraft         = errors.New("no draft in progress")
	ErrInvalidName     = errors.New("invalid player name")
	ErrInvalidTicket   = errors.New("invalid seat ticket")
	ErrNoExpansions    = errors.New("no expansions selected")
	ErrSeatSuperseded  = errors.New("seat was taken over by another connection")
)
