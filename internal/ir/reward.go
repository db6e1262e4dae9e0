package ir

// Reward is a set of grants applied together. Every grant is applied;
// order between grants does not change the outcome except for multipliers,
// which are applied after XP grants.
type Reward struct {
	Grants []Grant
}

// Grant is a sealed interface over reward grant variants.
type Grant interface {
	Kind() string
	grant() // Sealed
}

// XPGrant adds Amount XP.
type XPGrant struct {
	Amount int64
}

// BadgeGrant awards a badge. When Badge is nil a fresh common badge named
// Name is minted with a generated ID.
type BadgeGrant struct {
	Name  string
	Badge *Badge
}

// StreakGrant bumps the named streak counter. Invalid kinds are ignored.
type StreakGrant struct {
	Streak StreakKind
}

// MultiplierGrant sets XP to floor(XP * Factor). A factor below 1 is a
// penalty.
type MultiplierGrant struct {
	Factor float64
}

// EffectGrant runs a named effect from the hooks registry with direct
// write access to the user record. Unregistered effects are skipped.
type EffectGrant struct {
	Name string
	Args map[string]string
}

func (XPGrant) Kind() string         { return "xp" }
func (BadgeGrant) Kind() string      { return "badge" }
func (StreakGrant) Kind() string     { return "streak" }
func (MultiplierGrant) Kind() string { return "multiplier" }
func (EffectGrant) Kind() string     { return "effect" }

func (XPGrant) grant()         {}
func (BadgeGrant) grant()      {}
func (StreakGrant) grant()     {}
func (MultiplierGrant) grant() {}
func (EffectGrant) grant()     {}

// XP returns the total XP the reward adds before any multiplier.
func (r Reward) XP() int64 {
	var total int64
	for _, g := range r.Grants {
		if x, ok := g.(XPGrant); ok {
			total += x.Amount
		}
	}
	return total
}

// IsZero reports whether the reward grants nothing.
func (r Reward) IsZero() bool {
	return len(r.Grants) == 0
}
