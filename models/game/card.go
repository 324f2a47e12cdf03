package game

import (
	"math/rand"

	"github.com/chubibyy/Vidar-DEV/internal/apperr"
)

const (
	RarityCommon uint8 = iota
	RarityRare
	RarityEpic
	RarityLegendary
)

// PassiveType names which stat a card's rarity bonus lands on.
const (
	PassiveNone uint8 = iota
	PassiveBonusHealth
	PassiveBonusAttack
	PassiveBonusSpeed
)

// Flat bonus applied to the passive stat per rarity tier.
var rarityBonus = map[uint8]int{
	RarityCommon:    0,
	RarityRare:      2,
	RarityEpic:      4,
	RarityLegendary: 6,
}

// CardDefinition is the unit template a card id resolves to. The full card
// registry (art, abilities, gacha weights) lives in the client project;
// the server only needs the stats it is authoritative over.
type CardDefinition struct {
	Id          int     `json:"card_id"`
	DisplayName string  `json:"display_name"`
	MaxHealth   int     `json:"max_health"`
	AttackPower int     `json:"attack_power"`
	MoveSpeed   float64 `json:"move_speed"`
	Rarity      uint8   `json:"rarity"`
	Passive     uint8   `json:"passive"`
}

// SpawnStats returns the stats a freshly spawned unit starts with, rarity
// passive included.
func (c CardDefinition) SpawnStats() (health, attack int, speed float64) {
	health = c.MaxHealth
	attack = c.AttackPower
	speed = c.MoveSpeed

	bonus := rarityBonus[c.Rarity]
	switch c.Passive {
	case PassiveBonusHealth:
		health += bonus
	case PassiveBonusAttack:
		attack += bonus
	case PassiveBonusSpeed:
		speed += float64(bonus) * 0.5
	}
	return health, attack, speed
}

type CardRegistry struct {
	cards map[int]CardDefinition
}

func NewCardRegistry(cards []CardDefinition) *CardRegistry {
	reg := &CardRegistry{cards: make(map[int]CardDefinition, len(cards))}
	for _, c := range cards {
		reg.cards[c.Id] = c
	}
	return reg
}

// NewDefaultCardRegistry holds the launch roster. Stats mirror the card
// definition assets shipped with the client build.
func NewDefaultCardRegistry() *CardRegistry {
	return NewCardRegistry([]CardDefinition{
		{Id: 1, DisplayName: "Shield Thane", MaxHealth: 12, AttackPower: 2, MoveSpeed: 3.5, Rarity: RarityCommon, Passive: PassiveBonusHealth},
		{Id: 2, DisplayName: "Raid Skald", MaxHealth: 8, AttackPower: 4, MoveSpeed: 4.0, Rarity: RarityCommon, Passive: PassiveBonusAttack},
		{Id: 3, DisplayName: "Wolf Runner", MaxHealth: 7, AttackPower: 3, MoveSpeed: 5.5, Rarity: RarityRare, Passive: PassiveBonusSpeed},
		{Id: 4, DisplayName: "Rune Keeper", MaxHealth: 10, AttackPower: 5, MoveSpeed: 3.0, Rarity: RarityEpic, Passive: PassiveBonusAttack},
		{Id: 5, DisplayName: "Jarl of Ash", MaxHealth: 16, AttackPower: 6, MoveSpeed: 3.0, Rarity: RarityLegendary, Passive: PassiveBonusHealth},
	})
}

func (r *CardRegistry) CardById(id int) (CardDefinition, error) {
	card, prs := r.cards[id]
	if !prs {
		return CardDefinition{}, apperr.ErrUnknownCard
	}
	return card, nil
}

func (r *CardRegistry) RandomCard(rng *rand.Rand) CardDefinition {
	ids := make([]int, 0, len(r.cards))
	for id := range r.cards {
		ids = append(ids, id)
	}
	return r.cards[ids[rng.Intn(len(ids))]]
}

func (r *CardRegistry) Size() int {
	return len(r.cards)
}
