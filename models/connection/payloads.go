package connection

import (
	mg "github.com/chubibyy/Vidar-DEV/models/game"
)

type ReqPlaceUnit struct {
	CardId   int        `json:"card_id"`
	Position mg.Vector3 `json:"position"`
}

type ReqSummonUnit struct {
	CardId int `json:"card_id"`
}

type ReqAttackUnit struct {
	AttackerEntityId int `json:"attacker_entity_id"`
	TargetEntityId   int `json:"target_entity_id"`
}

type RespSessionId struct {
	SessionID string `json:"session_id"`
}

type RespSeatAssigned struct {
	Seat      int    `json:"seat"`
	MatchUuid string `json:"match_uuid"`
}

type RespStateUpdate struct {
	Board mg.BoardState `json:"board"`
}

type RespPlacementResult struct {
	Ok       bool   `json:"ok"`
	Reason   string `json:"reason,omitempty"`
	EntityId int    `json:"entity_id,omitempty"`
}

type RespUnitState struct {
	Unit mg.UnitEntity `json:"unit"`
}

type RespUnitDespawned struct {
	EntityId int `json:"entity_id"`
}

type RespFocusEntity struct {
	EntityId int `json:"entity_id"`
}
