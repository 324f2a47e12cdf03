package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chubibyy/Vidar-DEV/internal/apperr"
)

const (
	// Exactly two fixed turn-order slots per ranked match. A third
	// connection attempt is refused before it ever touches the board.
	MaxSeats = 2

	// Server-picked summon points get this many randomized tries before
	// falling back to the zone's geometric center.
	summonOffsetRetries = 4

	// Two units cannot stand closer than this, so summon retries skip
	// occupied ground.
	minUnitSpacing = 1.0
)

const (
	PhaseAwaitingPlayers uint8 = iota
	PhaseInProgress
)

// Match is the authoritative turn/placement engine. It runs only in the
// dedicated server process; every mutating entry point serializes through
// one mutex so concurrent requests from both players apply one at a time
// and the late one is validated against the state the first one produced.
type Match struct {
	uuid         string
	board        BoardState
	seats        []string // session ids in arrival order; index is the seat
	zones        [MaxSeats]SpawnZone
	units        map[int]*UnitEntity
	nextEntityId int
	cards        *CardRegistry
	rng          *rand.Rand
	mu           sync.Mutex
}

func NewMatch(cards *CardRegistry) *Match {
	return &Match{
		uuid:         uuid.NewString()[:6],
		board:        NewBoardState(),
		seats:        make([]string, 0, MaxSeats),
		zones:        defaultSpawnZones(),
		units:        make(map[int]*UnitEntity, 8),
		nextEntityId: 1,
		cards:        cards,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *Match) Uuid() string {
	return m.uuid
}

// RegisterSeat binds a connection identity to the next free seat in arrival
// order. Returns ErrMatchFull when both seats are taken.
func (m *Match) RegisterSeat(sessionId string) (int, BoardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.seats) >= MaxSeats {
		return -1, m.board, apperr.ErrMatchFull
	}

	m.seats = append(m.seats, sessionId)
	return len(m.seats) - 1, m.board, nil
}

// ReleaseSeat drops a departed identity and compacts the list. Remaining
// identities shift down; seat index stays "arrival order among those
// present", not a fixed slot with a hole.
func (m *Match) ReleaseSeat(sessionId string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, id := range m.seats {
		if id == sessionId {
			m.seats = append(m.seats[:i], m.seats[i+1:]...)
			return
		}
	}
}

// SeatIndex resolves a connection identity to its seat, -1 when unknown.
func (m *Match) SeatIndex(sessionId string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seatIndexLocked(sessionId)
}

func (m *Match) seatIndexLocked(sessionId string) int {
	for i, id := range m.seats {
		if id == sessionId {
			return i
		}
	}
	return -1
}

// SeatSessions returns the connection identities currently holding seats,
// in seat order. This is the broadcast fan-out list.
func (m *Match) SeatSessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.seats))
	copy(out, m.seats)
	return out
}

func (m *Match) Phase() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phaseLocked()
}

func (m *Match) phaseLocked() uint8 {
	if len(m.seats) < MaxSeats {
		return PhaseAwaitingPlayers
	}
	return PhaseInProgress
}

func (m *Match) SeatCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seats)
}

func (m *Match) Board() BoardState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.board
}

// activeSeatLocked is the sender-legitimacy gate every mutating request
// passes through: known seat, match live, and it is that seat's turn.
func (m *Match) activeSeatLocked(sessionId string) (int, error) {
	seat := m.seatIndexLocked(sessionId)
	if seat == -1 {
		return -1, apperr.ErrUnknownSeat
	}
	if m.phaseLocked() != PhaseInProgress {
		return seat, apperr.ErrMatchNotLive
	}
	if seat != m.board.ActivePlayer {
		return seat, apperr.ErrNotYourTurn
	}
	return seat, nil
}

// AdvanceMove increments the active player's move counter.
func (m *Match) AdvanceMove(sessionId string) (BoardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, err := m.activeSeatLocked(sessionId)
	if err != nil {
		return m.board, err
	}

	if seat == 0 {
		m.board.MovesPlayer0++
	} else {
		m.board.MovesPlayer1++
	}
	return m.board, nil
}

// EndTurn bumps the turn index and hands the turn to the other seat. The
// active player flips here and nowhere else.
func (m *Match) EndTurn(sessionId string) (BoardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.activeSeatLocked(sessionId); err != nil {
		return m.board, err
	}

	m.board.TurnIndex++
	if m.board.ActivePlayer == 0 {
		m.board.ActivePlayer = 1
	} else {
		m.board.ActivePlayer = 0
	}
	return m.board, nil
}

// PlaceUnit spawns the unit a card resolves to at a client-chosen position,
// after validating the sender is the active player and the position sits
// inside that seat's spawn zone.
func (m *Match) PlaceUnit(sessionId string, cardId int, pos Vector3) (UnitEntity, BoardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, err := m.activeSeatLocked(sessionId)
	if err != nil {
		return UnitEntity{}, m.board, err
	}

	if !m.zones[seat].Contains(pos) {
		return UnitEntity{}, m.board, apperr.ErrOutOfZone
	}

	card, err := m.cards.CardById(cardId)
	if err != nil {
		return UnitEntity{}, m.board, err
	}

	return m.spawnLocked(card, seat, sessionId, pos), m.board, nil
}

// SummonUnit is PlaceUnit with a server-computed spawn point: the zone
// center dropped onto the playing surface, nudged by bounded randomized
// offsets so summons do not stack on top of each other.
func (m *Match) SummonUnit(sessionId string, cardId int) (UnitEntity, BoardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, err := m.activeSeatLocked(sessionId)
	if err != nil {
		return UnitEntity{}, m.board, err
	}

	card, err := m.cards.CardById(cardId)
	if err != nil {
		return UnitEntity{}, m.board, err
	}

	pos := m.pickSummonPointLocked(m.zones[seat])
	return m.spawnLocked(card, seat, sessionId, pos), m.board, nil
}

func (m *Match) pickSummonPointLocked(zone SpawnZone) Vector3 {
	for i := 0; i < summonOffsetRetries; i++ {
		dx := (m.rng.Float64()*2 - 1) * zone.HalfExtents.X
		dz := (m.rng.Float64()*2 - 1) * zone.HalfExtents.Z
		candidate := zone.GroundPoint(zone.Center.X+dx, zone.Center.Z+dz)

		if m.groundFreeLocked(candidate) {
			return candidate
		}
	}
	return zone.GroundCenter()
}

func (m *Match) groundFreeLocked(p Vector3) bool {
	for _, u := range m.units {
		if u.Position.DistanceTo(p) < minUnitSpacing {
			return false
		}
	}
	return true
}

func (m *Match) spawnLocked(card CardDefinition, seat int, sessionId string, pos Vector3) UnitEntity {
	unit := newUnitEntity(m.nextEntityId, card, seat, sessionId, pos)
	m.units[unit.Id] = unit
	m.nextEntityId++
	return *unit
}

// AttackUnit is the player-facing damage entry point: the active player
// directs one of their own units against an enemy unit, and the server
// applies the attacker's attack power. Despawn at zero health happens here.
func (m *Match) AttackUnit(sessionId string, attackerId, targetId int) (UnitEntity, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, err := m.activeSeatLocked(sessionId)
	if err != nil {
		return UnitEntity{}, false, err
	}

	attacker, prs := m.units[attackerId]
	if !prs {
		return UnitEntity{}, false, apperr.ErrUnknownUnit
	}
	if attacker.OwnerSeat != seat {
		return UnitEntity{}, false, apperr.ErrNotYourUnit
	}

	target, prs := m.units[targetId]
	if !prs {
		return UnitEntity{}, false, apperr.ErrUnknownUnit
	}
	if target.Team == attacker.Team {
		return UnitEntity{}, false, apperr.ErrFriendlyFire
	}

	return m.applyDamageLocked(target, attacker.AttackPower)
}

// ApplyDamage runs only on the server, for damage sources that are not a
// player-directed attack (hazards, scripted effects).
func (m *Match) ApplyDamage(entityId, amount int) (UnitEntity, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	unit, prs := m.units[entityId]
	if !prs {
		return UnitEntity{}, false, apperr.ErrUnknownUnit
	}
	return m.applyDamageLocked(unit, amount)
}

// applyDamageLocked clamps health at zero and despawns the unit (removes it
// from the arena) when it reaches zero.
func (m *Match) applyDamageLocked(unit *UnitEntity, amount int) (UnitEntity, bool, error) {
	unit.Health -= amount
	if unit.Health <= 0 {
		unit.Health = 0
		delete(m.units, unit.Id)
		return *unit, true, nil
	}
	return *unit, false, nil
}

func (m *Match) Unit(entityId int) (UnitEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	unit, prs := m.units[entityId]
	if !prs {
		return UnitEntity{}, apperr.ErrUnknownUnit
	}
	return *unit, nil
}

func (m *Match) UnitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.units)
}

// SpawnZoneForSeat exposes the zone geometry so clients can render it and
// tests can build in/out-of-zone positions.
func (m *Match) SpawnZoneForSeat(seat int) (SpawnZone, bool) {
	if seat < 0 || seat >= MaxSeats {
		return SpawnZone{}, false
	}
	return m.zones[seat], true
}
