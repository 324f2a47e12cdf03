package game

import "math"

// ZoneTolerance widens containment checks slightly so a placement ray that
// lands on the very edge of a zone is not rejected for a rounding error.
const ZoneTolerance = 0.25

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector3) DistanceTo(o Vector3) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// SpawnZone is an axis-aligned volume, one per seat, used to validate
// placement requests.
type SpawnZone struct {
	Name        string  `json:"name"`
	Center      Vector3 `json:"center"`
	HalfExtents Vector3 `json:"half_extents"`
}

func (z SpawnZone) Contains(p Vector3) bool {
	return math.Abs(p.X-z.Center.X) <= z.HalfExtents.X+ZoneTolerance &&
		math.Abs(p.Y-z.Center.Y) <= z.HalfExtents.Y+ZoneTolerance &&
		math.Abs(p.Z-z.Center.Z) <= z.HalfExtents.Z+ZoneTolerance
}

// GroundPoint projects a horizontal coordinate down onto the zone floor,
// the playing surface a summoned unit stands on.
func (z SpawnZone) GroundPoint(x, zz float64) Vector3 {
	return Vector3{X: x, Y: z.Center.Y - z.HalfExtents.Y, Z: zz}
}

func (z SpawnZone) GroundCenter() Vector3 {
	return z.GroundPoint(z.Center.X, z.Center.Z)
}

// The arena floor sits at y=0 with the two spawn zones mirrored across the
// mid line. Coordinates match the shipped map; a future map loader would
// replace these.
func defaultSpawnZones() [MaxSeats]SpawnZone {
	return [MaxSeats]SpawnZone{
		{
			Name:        "spawn-zone-p1",
			Center:      Vector3{X: 0, Y: 0.5, Z: -8},
			HalfExtents: Vector3{X: 6, Y: 0.5, Z: 3},
		},
		{
			Name:        "spawn-zone-p2",
			Center:      Vector3{X: 0, Y: 0.5, Z: 8},
			HalfExtents: Vector3{X: 6, Y: 0.5, Z: 3},
		},
	}
}
