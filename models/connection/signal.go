package connection

const (
	CodeSessionID uint8 = iota

	// Seat lifecycle
	CodeSeatAssigned
	CodeMatchFull

	// Client -> server actions; all require sender-is-active-player
	CodeAdvanceMove
	CodeEndTurn
	CodePlaceUnit
	CodeSummonUnit
	CodeAttackUnit

	// Server -> client pushes
	CodeStateUpdate
	CodePlacementResult
	CodeUnitState
	CodeUnitDespawned
	CodeFocusEntity

	CodeInvalidSignal

	// if the req msg does not contain "code" field
	CodeSignalAbsent
)

type Signal struct {
	Code uint8 `json:"code"`
}
