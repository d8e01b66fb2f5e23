package game

// Capability summarises a unit's weapons as expected damage per turn at each
// range bracket limit. Brackets are inclusive hex distances.
type Capability struct {
	Damage float64 `json:"damage" yaml:"damage"`
	Short  int     `json:"short" yaml:"short"`
	Medium int     `json:"medium" yaml:"medium"`
	Long   int     `json:"long" yaml:"long"`
}

// MaxRange is the longest distance the unit can fire at.
func (c Capability) MaxRange() int {
	return max(c.Short, c.Medium, c.Long)
}

// RangeFactor scales damage by range bracket: 1.0 short, 0.75 medium, 0.5 long,
// 0 beyond.
func (c Capability) RangeFactor(distance int) float64 {
	switch {
	case distance <= c.Short:
		return 1.0
	case distance <= c.Medium:
		return 0.75
	case distance <= c.Long:
		return 0.5
	default:
		return 0
	}
}

// Unit is a snapshot of one game entity as seen by the bot.
type Unit struct {
	ID       UnitID     `json:"id"`
	Owner    PlayerID   `json:"owner"`
	Position Coords     `json:"position"`
	Facing   Facing     `json:"facing"`
	WalkMP   int        `json:"walk_mp"`
	RunMP    int        `json:"run_mp"`
	Piloting int        `json:"piloting"`
	Gunnery  int        `json:"gunnery"`
	Armor    int        `json:"armor"`
	MaxArmor int        `json:"max_armor"`
	Immobile bool       `json:"immobile"`
	HomeEdge Edge       `json:"home_edge"`
	Weapons  Capability `json:"weapons"`
}

// Health returns remaining armor as a fraction of maximum.
func (u Unit) Health() float64 {
	if u.MaxArmor <= 0 {
		return 1
	}
	return float64(u.Armor) / float64(u.MaxArmor)
}

func (u Unit) Destroyed() bool {
	return u.MaxArmor > 0 && u.Armor <= 0
}
