package game

// BoardState is the full replicated match state. The dedicated server owns
// the only mutable copy; clients receive read-only snapshots pushed after
// every accepted mutation. The struct is small on purpose so the whole
// thing is resent each time instead of maintaining a delta protocol.
type BoardState struct {
	TurnIndex    int `json:"turn_index"`
	ActivePlayer int `json:"active_player"`
	MovesPlayer0 int `json:"moves_player_0"`
	MovesPlayer1 int `json:"moves_player_1"`
}

func NewBoardState() BoardState {
	return BoardState{TurnIndex: 0, ActivePlayer: 0, MovesPlayer0: 0, MovesPlayer1: 0}
}
