package game

// UnitEntity is a spawned, server-owned game object. All stat mutation goes
// through Match entry points; clients only ever see copies pushed after a
// change. OwnerSession carries input authority for the spawning player.
type UnitEntity struct {
	Id           int     `json:"entity_id"`
	CardId       int     `json:"card_id"`
	OwnerSeat    int     `json:"owner_seat"`
	OwnerSession string  `json:"-"`
	Team         int     `json:"team"`
	Health       int     `json:"health"`
	MaxHealth    int     `json:"max_health"`
	AttackPower  int     `json:"attack_power"`
	MoveSpeed    float64 `json:"move_speed"`
	Position     Vector3 `json:"position"`
}

func newUnitEntity(id int, card CardDefinition, ownerSeat int, ownerSession string, pos Vector3) *UnitEntity {
	health, attack, speed := card.SpawnStats()
	return &UnitEntity{
		Id:           id,
		CardId:       card.Id,
		OwnerSeat:    ownerSeat,
		OwnerSession: ownerSession,
		Team:         ownerSeat,
		Health:       health,
		MaxHealth:    health,
		AttackPower:  attack,
		MoveSpeed:    speed,
		Position:     pos,
	}
}
