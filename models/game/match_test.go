package game

import (
	"errors"
	"testing"

	"github.com/chubibyy/Vidar-DEV/internal/apperr"
)

const (
	p0 = "session-p0"
	p1 = "session-p1"
)

func newLiveMatch(t *testing.T) *Match {
	t.Helper()

	m := NewMatch(NewDefaultCardRegistry())
	if _, _, err := m.RegisterSeat(p0); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.RegisterSeat(p1); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestRegisterSeat(t *testing.T) {
	m := NewMatch(NewDefaultCardRegistry())

	seat, board, err := m.RegisterSeat(p0)
	if err != nil {
		t.Fatal(err)
	}
	if seat != 0 {
		t.Fatalf("expected seat 0 for first arrival, got %d", seat)
	}
	if board.ActivePlayer != 0 || board.TurnIndex != 0 {
		t.Fatalf("fresh board must start at turn 0 with seat 0 active, got %+v", board)
	}
	if m.Phase() != PhaseAwaitingPlayers {
		t.Fatal("match with one seat must still be awaiting players")
	}

	seat, _, err = m.RegisterSeat(p1)
	if err != nil {
		t.Fatal(err)
	}
	if seat != 1 {
		t.Fatalf("expected seat 1 for second arrival, got %d", seat)
	}
	if m.Phase() != PhaseInProgress {
		t.Fatal("match with both seats must be in progress")
	}

	if _, _, err := m.RegisterSeat("session-p2"); !errors.Is(err, apperr.ErrMatchFull) {
		t.Fatalf("third arrival must be refused with ErrMatchFull, got %v", err)
	}
}

func TestReleaseSeatCompacts(t *testing.T) {
	m := newLiveMatch(t)

	m.ReleaseSeat(p0)

	if got := m.SeatIndex(p1); got != 0 {
		t.Fatalf("remaining identity must shift down to seat 0, got %d", got)
	}
	if got := m.SeatIndex(p0); got != -1 {
		t.Fatalf("released identity must resolve to -1, got %d", got)
	}
	if m.Phase() != PhaseAwaitingPlayers {
		t.Fatal("match must drop back to awaiting players after a release")
	}

	sessions := m.SeatSessions()
	if len(sessions) != 1 || sessions[0] != p1 {
		t.Fatalf("unexpected fan-out list: %v", sessions)
	}
}

func TestMutationsBlockedBeforeBothSeats(t *testing.T) {
	m := NewMatch(NewDefaultCardRegistry())
	if _, _, err := m.RegisterSeat(p0); err != nil {
		t.Fatal(err)
	}

	if _, err := m.AdvanceMove(p0); !errors.Is(err, apperr.ErrMatchNotLive) {
		t.Fatalf("expected ErrMatchNotLive, got %v", err)
	}
	if _, err := m.EndTurn(p0); !errors.Is(err, apperr.ErrMatchNotLive) {
		t.Fatalf("expected ErrMatchNotLive, got %v", err)
	}
}

func TestAdvanceMove(t *testing.T) {
	m := newLiveMatch(t)

	board, err := m.AdvanceMove(p0)
	if err != nil {
		t.Fatal(err)
	}
	if board.MovesPlayer0 != 1 || board.MovesPlayer1 != 0 {
		t.Fatalf("expected move counters 1/0, got %d/%d", board.MovesPlayer0, board.MovesPlayer1)
	}

	// Seat 1 is not active yet; the board must be untouched by the attempt.
	before := m.Board()
	if _, err := m.AdvanceMove(p1); !errors.Is(err, apperr.ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if m.Board() != before {
		t.Fatal("rejected request must not mutate the board")
	}

	if _, err := m.AdvanceMove("session-ghost"); !errors.Is(err, apperr.ErrUnknownSeat) {
		t.Fatalf("expected ErrUnknownSeat, got %v", err)
	}
}

func TestEndTurnAlternates(t *testing.T) {
	m := newLiveMatch(t)

	board, err := m.EndTurn(p0)
	if err != nil {
		t.Fatal(err)
	}
	if board.TurnIndex != 1 || board.ActivePlayer != 1 {
		t.Fatalf("after first end-turn expected turn 1 active 1, got %+v", board)
	}

	// Seat 0 no longer holds the turn.
	if _, err := m.EndTurn(p0); !errors.Is(err, apperr.ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}

	board, err = m.EndTurn(p1)
	if err != nil {
		t.Fatal(err)
	}
	if board.TurnIndex != 2 || board.ActivePlayer != 0 {
		t.Fatalf("after second end-turn expected turn 2 active 0, got %+v", board)
	}
}

func TestPlaceUnit(t *testing.T) {
	m := newLiveMatch(t)
	zone, _ := m.SpawnZoneForSeat(0)

	tests := []struct {
		name        string
		sessionId   string
		cardId      int
		pos         Vector3
		expectedErr error
	}{
		{
			name:      "valid placement at zone center",
			sessionId: p0,
			cardId:    1,
			pos:       zone.GroundCenter(),
		},
		{
			name:      "edge position within tolerance",
			sessionId: p0,
			cardId:    2,
			pos:       Vector3{X: zone.Center.X + zone.HalfExtents.X + ZoneTolerance/2, Y: zone.Center.Y, Z: zone.Center.Z},
		},
		{
			name:        "position in the opponent zone",
			sessionId:   p0,
			cardId:      1,
			pos:         Vector3{X: 0, Y: 0.5, Z: 8},
			expectedErr: apperr.ErrOutOfZone,
		},
		{
			name:        "unregistered card id",
			sessionId:   p0,
			cardId:      999,
			pos:         zone.GroundCenter(),
			expectedErr: apperr.ErrUnknownCard,
		},
		{
			name:        "inactive player",
			sessionId:   p1,
			cardId:      1,
			pos:         zone.GroundCenter(),
			expectedErr: apperr.ErrNotYourTurn,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			before := m.UnitCount()
			unit, _, err := m.PlaceUnit(test.sessionId, test.cardId, test.pos)

			if test.expectedErr != nil {
				if !errors.Is(err, test.expectedErr) {
					t.Fatalf("expected %v, got %v", test.expectedErr, err)
				}
				if m.UnitCount() != before {
					t.Fatal("rejected placement must not spawn a unit")
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}
			if unit.Id == 0 {
				t.Fatal("spawned unit must carry a non-zero entity id")
			}
			if unit.OwnerSeat != 0 || unit.Team != 0 {
				t.Fatalf("unit must belong to the placing seat, got seat %d team %d", unit.OwnerSeat, unit.Team)
			}
			if unit.Position != test.pos {
				t.Fatalf("unit must spawn where requested, got %+v", unit.Position)
			}
			if m.UnitCount() != before+1 {
				t.Fatal("accepted placement must spawn exactly one unit")
			}
		})
	}
}

func TestPlaceUnitAppliesRarityPassive(t *testing.T) {
	m := newLiveMatch(t)
	zone, _ := m.SpawnZoneForSeat(0)

	// Card 5 is legendary with a health passive: 16 base + 6 bonus.
	unit, _, err := m.PlaceUnit(p0, 5, zone.GroundCenter())
	if err != nil {
		t.Fatal(err)
	}
	if unit.Health != 22 || unit.MaxHealth != 22 {
		t.Fatalf("expected 22 health with legendary bonus, got %d/%d", unit.Health, unit.MaxHealth)
	}
	if unit.AttackPower != 6 {
		t.Fatalf("attack must stay at base for a health passive, got %d", unit.AttackPower)
	}
}

func TestSummonUnit(t *testing.T) {
	m := newLiveMatch(t)
	zone, _ := m.SpawnZoneForSeat(0)

	unit, _, err := m.SummonUnit(p0, 3)
	if err != nil {
		t.Fatal(err)
	}

	if !zone.Contains(unit.Position) {
		t.Fatalf("summoned unit must land inside the seat's zone, got %+v", unit.Position)
	}
	if unit.Position.Y != zone.Center.Y-zone.HalfExtents.Y {
		t.Fatalf("summoned unit must stand on the zone floor, got y=%f", unit.Position.Y)
	}

	// Card 3 is rare with a speed passive: 5.5 base + 2*0.5.
	if unit.MoveSpeed != 6.5 {
		t.Fatalf("expected 6.5 move speed with rare speed bonus, got %f", unit.MoveSpeed)
	}

	if _, _, err := m.SummonUnit(p0, 999); !errors.Is(err, apperr.ErrUnknownCard) {
		t.Fatalf("expected ErrUnknownCard, got %v", err)
	}
	if _, _, err := m.SummonUnit(p1, 1); !errors.Is(err, apperr.ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

func TestSummonUnitsKeepSpacing(t *testing.T) {
	m := newLiveMatch(t)

	var units []UnitEntity
	for i := 0; i < 5; i++ {
		unit, _, err := m.SummonUnit(p0, 1)
		if err != nil {
			t.Fatal(err)
		}
		units = append(units, unit)
	}

	// All offset retries may collide and fall back to the zone center, so
	// only the randomized picks are held to the spacing rule.
	zone, _ := m.SpawnZoneForSeat(0)
	center := zone.GroundCenter()
	for i := range units {
		for j := i + 1; j < len(units); j++ {
			if units[i].Position == center || units[j].Position == center {
				continue
			}
			if d := units[i].Position.DistanceTo(units[j].Position); d < minUnitSpacing {
				t.Fatalf("units %d and %d stand %f apart, below min spacing", units[i].Id, units[j].Id, d)
			}
		}
	}
}

func TestAttackUnit(t *testing.T) {
	m := newLiveMatch(t)
	zone0, _ := m.SpawnZoneForSeat(0)
	zone1, _ := m.SpawnZoneForSeat(1)

	// Seat 0 fields a Raid Skald (4 attack) and a second unit, then hands
	// the turn over so seat 1 can field the target's attacker.
	attacker0, _, err := m.PlaceUnit(p0, 2, zone0.GroundCenter())
	if err != nil {
		t.Fatal(err)
	}
	friendly0, _, err := m.PlaceUnit(p0, 1, zone0.GroundPoint(3, -8))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.EndTurn(p0); err != nil {
		t.Fatal(err)
	}

	// Shield Thane: 12 base + 0 common bonus.
	target1, _, err := m.PlaceUnit(p1, 1, zone1.GroundCenter())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		sessionId   string
		attackerId  int
		targetId    int
		expectedErr error
	}{
		{
			name:        "attacker seat is not active",
			sessionId:   p0,
			attackerId:  attacker0.Id,
			targetId:    target1.Id,
			expectedErr: apperr.ErrNotYourTurn,
		},
		{
			name:        "attacking with an enemy unit",
			sessionId:   p1,
			attackerId:  attacker0.Id,
			targetId:    target1.Id,
			expectedErr: apperr.ErrNotYourUnit,
		},
		{
			name:        "attacking own team",
			sessionId:   p0,
			attackerId:  attacker0.Id,
			targetId:    friendly0.Id,
			expectedErr: apperr.ErrNotYourTurn, // still seat 1's turn
		},
		{
			name:        "unknown attacker",
			sessionId:   p1,
			attackerId:  999,
			targetId:    attacker0.Id,
			expectedErr: apperr.ErrUnknownUnit,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, _, err := m.AttackUnit(test.sessionId, test.attackerId, test.targetId); !errors.Is(err, test.expectedErr) {
				t.Fatalf("expected %v, got %v", test.expectedErr, err)
			}
		})
	}

	// Seat 1's Shield Thane (2 attack) chips the Raid Skald: 8 -> 6.
	hit, despawned, err := m.AttackUnit(p1, target1.Id, attacker0.Id)
	if err != nil {
		t.Fatal(err)
	}
	if despawned {
		t.Fatal("target must survive a 2-damage hit at 8 health")
	}
	if hit.Health != 6 {
		t.Fatalf("expected 6 health after the hit, got %d", hit.Health)
	}

	// Back to seat 0: friendly fire is refused once the seat is active.
	if _, err := m.EndTurn(p1); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.AttackUnit(p0, attacker0.Id, friendly0.Id); !errors.Is(err, apperr.ErrFriendlyFire) {
		t.Fatalf("expected ErrFriendlyFire, got %v", err)
	}

	// 4-attack hits finish the 12-health target in three swings.
	for i := 0; i < 2; i++ {
		if _, despawned, err := m.AttackUnit(p0, attacker0.Id, target1.Id); err != nil || despawned {
			t.Fatalf("swing %d: err=%v despawned=%t", i, err, despawned)
		}
	}
	dead, despawned, err := m.AttackUnit(p0, attacker0.Id, target1.Id)
	if err != nil {
		t.Fatal(err)
	}
	if !despawned || dead.Health != 0 {
		t.Fatalf("expected clamped despawn on the killing swing, got %+v despawned=%t", dead, despawned)
	}
	if _, err := m.Unit(target1.Id); !errors.Is(err, apperr.ErrUnknownUnit) {
		t.Fatalf("despawned unit must leave the arena, got %v", err)
	}
}

func TestApplyDamage(t *testing.T) {
	m := newLiveMatch(t)
	zone, _ := m.SpawnZoneForSeat(0)

	unit, _, err := m.PlaceUnit(p0, 2, zone.GroundCenter())
	if err != nil {
		t.Fatal(err)
	}

	damaged, despawned, err := m.ApplyDamage(unit.Id, 3)
	if err != nil {
		t.Fatal(err)
	}
	if despawned {
		t.Fatal("unit must survive partial damage")
	}
	if damaged.Health != unit.Health-3 {
		t.Fatalf("expected %d health, got %d", unit.Health-3, damaged.Health)
	}

	// Overkill clamps at zero and removes the unit.
	dead, despawned, err := m.ApplyDamage(unit.Id, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !despawned {
		t.Fatal("unit at zero health must despawn")
	}
	if dead.Health != 0 {
		t.Fatalf("health must clamp at zero, got %d", dead.Health)
	}
	if m.UnitCount() != 0 {
		t.Fatal("despawned unit must leave the arena")
	}

	if _, _, err := m.ApplyDamage(unit.Id, 1); !errors.Is(err, apperr.ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit for a despawned entity, got %v", err)
	}
}
