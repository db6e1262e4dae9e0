package rules

import (
	"time"

	"github.com/roach88/gamify/internal/hooks"
	"github.com/roach88/gamify/internal/ir"
)

// Match reports whether every condition holds for ev.
//
// An empty condition list always matches. A condition whose payload field
// is missing or has the wrong type does not hold. Unknown condition kinds
// never hold.
func Match(conds []ir.Condition, ev ir.Event, now time.Time, h *hooks.Registry) bool {
	for _, c := range conds {
		if !matchOne(c, ev, now, h) {
			return false
		}
	}
	return true
}

func matchOne(c ir.Condition, ev ir.Event, now time.Time, h *hooks.Registry) bool {
	switch cond := c.(type) {
	case ir.ThresholdCondition:
		v, ok := ev.Payload.Number(ir.PayloadValue)
		return ok && v >= cond.Min

	case ir.ComboCondition:
		keys, ok := ev.Payload.Strings(ir.PayloadKeys)
		if !ok {
			return false
		}
		present := make(map[string]bool, len(keys))
		for _, k := range keys {
			present[k] = true
		}
		for _, want := range cond.Keys {
			if !present[want] {
				return false
			}
		}
		return true

	case ir.TimeWindowCondition:
		ms, ok := ev.Payload.Number(ir.PayloadTimestamp)
		if !ok {
			return false
		}
		at := time.UnixMilli(int64(ms))
		return now.Sub(at) <= cond.Window

	case ir.DurationCondition:
		d, ok := ev.Payload.Number(ir.PayloadDuration)
		return ok && d >= cond.Min

	case ir.PredicateCondition:
		return h != nil && h.Condition(cond.Name, ev)

	default:
		// ir.UnknownCondition and anything not listed above.
		return false
	}
}
