package apperr

import (
	"errors"
	"fmt"
)

// Terminal matchmaking/provisioning failures. These are compared with
// errors.Is by the coordinator, so they must stay sentinel values.
var (
	ErrNoSessionAvailable = errors.New("no open session available for quick join")
	ErrProvisionTimeout   = errors.New("timed out waiting for server to report running")
	ErrMatchmakeTimeout   = errors.New("timed out waiting for host to publish server address")
	ErrNotLobbyOwner      = errors.New("only the creating identity may modify this session")
)

// Illegal player actions. Rejected server side with no state mutation
// and no broadcast.
var (
	ErrNotYourTurn  = errors.New("sender is not the active player")
	ErrUnknownSeat  = errors.New("sender holds no seat in this match")
	ErrMatchFull    = errors.New("both seats are occupied")
	ErrOutOfZone    = errors.New("requested position is outside the sender's spawn zone")
	ErrUnknownCard  = errors.New("card id has no registered definition")
	ErrUnknownUnit  = errors.New("no spawned unit with this entity id")
	ErrNotYourUnit  = errors.New("attacking unit is not owned by the sender")
	ErrFriendlyFire = errors.New("target unit is on the attacker's own team")
	ErrMatchNotLive = errors.New("match has not started; waiting for players")
)

func ErrSessionNotFound(sessionId string) error {
	return fmt.Errorf("session with this id does not exist, id: %s", sessionId)
}

func ErrLobbyNotFound(lobbyId string) error {
	return fmt.Errorf("lobby with this id does not exist, id: %s", lobbyId)
}

func ErrInvalidServerPort(raw string) error {
	return fmt.Errorf("session data carries an invalid server port: %q", raw)
}
