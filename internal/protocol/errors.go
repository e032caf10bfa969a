package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session routing.
	ErrUnknownSpecies = "E_UNKNOWN_SPECIES"
	ErrSpeciesTaken   = "E_SPECIES_TAKEN"
	ErrBusy           = "E_BUSY"

	// Decision layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrIllegalAction = "E_ILLEGAL_ACTION"
	ErrStale         = "E_STALE"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrUnknownSpecies:  {},
	ErrSpeciesTaken:    {},
	ErrBusy:            {},
	ErrBadRequest:      {},
	ErrIllegalAction:   {},
	ErrStale:           {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

func NewError(code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: msg}
}
