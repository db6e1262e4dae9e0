// Package reward is the Reward Applicator: it applies a resolved reward to
// a locked user record.
//
// Rule rewards, mission rewards and achievement rewards all go through
// Apply, so the three paths share one set of semantics.
package reward

import (
	"fmt"

	"github.com/roach88/gamify/internal/hooks"
	"github.com/roach88/gamify/internal/ids"
	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/store"
)

// Applied summarizes what a reward actually changed.
type Applied struct {
	XP          int64       // XP delta including any multiplier effect
	Badges      []ir.Badge  // badges newly added (already-held badges excluded)
	Streaks     []ir.Streak // streak counters after their bump
	Multipliers []float64   // multipliers applied, in order
	Effects     []string    // effects that ran
	Skipped     []string    // grants that had no effect, with a reason
}

// Applicator applies rewards.
type Applicator struct {
	ids   ids.Generator
	hooks *hooks.Registry
}

// New creates an applicator. gen mints ids for badges named by string;
// h resolves named effects.
func New(gen ids.Generator, h *hooks.Registry) *Applicator {
	if gen == nil {
		gen = ids.UUIDv7Generator{}
	}
	if h == nil {
		h = hooks.NewRegistry()
	}
	return &Applicator{ids: gen, hooks: h}
}

// Apply applies every grant of rw to r.
//
// XP, badge, streak and effect grants are applied in declaration order.
// Multipliers run after every other grant so that they always scale the
// XP the reward itself added.
func (a *Applicator) Apply(r *store.Record, rw ir.Reward) Applied {
	var out Applied
	before := r.View().XP

	var multipliers []ir.MultiplierGrant
	for _, g := range rw.Grants {
		switch grant := g.(type) {
		case ir.XPGrant:
			r.AddXP(grant.Amount)

		case ir.BadgeGrant:
			if grant.Badge == nil && holdsNamed(r, grant.Name) {
				out.Skipped = append(out.Skipped, fmt.Sprintf("badge %q already held", grant.Name))
				continue
			}
			b := a.badge(grant, r)
			if r.AddBadge(b) {
				out.Badges = append(out.Badges, b)
			} else {
				out.Skipped = append(out.Skipped, fmt.Sprintf("badge %q already held", b.ID))
			}

		case ir.StreakGrant:
			if !grant.Streak.Valid() {
				out.Skipped = append(out.Skipped, fmt.Sprintf("streak %q is not a valid kind", grant.Streak))
				continue
			}
			out.Streaks = append(out.Streaks, r.UpdateStreak(grant.Streak))

		case ir.MultiplierGrant:
			multipliers = append(multipliers, grant)

		case ir.EffectGrant:
			if a.hooks.RunEffect(grant.Name, r.User(), grant.Args) {
				out.Effects = append(out.Effects, grant.Name)
			} else {
				out.Skipped = append(out.Skipped, fmt.Sprintf("effect %q is not registered", grant.Name))
			}
		}
	}

	for _, m := range multipliers {
		r.ScaleXP(m.Factor)
		out.Multipliers = append(out.Multipliers, m.Factor)
	}

	out.XP = r.View().XP - before
	return out
}

// holdsNamed reports whether the user already holds a badge called name.
// Badges minted from a bare name get a fresh id each time, so the name is
// what keeps repeated grants idempotent.
func holdsNamed(r *store.Record, name string) bool {
	for _, b := range r.View().Badges {
		if b.Name == name {
			return true
		}
	}
	return false
}

// badge resolves a badge grant into a concrete badge. A grant that only
// names a badge gets a freshly minted common badge.
func (a *Applicator) badge(g ir.BadgeGrant, r *store.Record) ir.Badge {
	if g.Badge != nil {
		b := *g.Badge
		if b.ID == "" {
			b.ID = a.ids.Generate()
		}
		if b.Name == "" {
			b.Name = g.Name
		}
		return b
	}
	return ir.Badge{
		ID:          a.ids.Generate(),
		Name:        g.Name,
		Description: fmt.Sprintf("Earned %s badge", g.Name),
		Rarity:      ir.RarityCommon,
		EarnedAt:    r.Now(),
	}
}
