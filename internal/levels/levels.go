// Package levels implements the XP level curve and its inverse.
//
// Levels 1 through 10 use an explicit threshold table. Level 10 shares the
// level 9 threshold, so leveling stops at MaxLevel. Beyond the table,
// thresholds follow 100*(L-1) + 50*(L-1)*(L-2).
package levels

import (
	"math"

	"github.com/roach88/gamify/internal/ir"
)

// MaxLevel is the highest level LevelForXP can report.
const MaxLevel = 9

// thresholds[L] is the minimum XP for level L.
var thresholds = [...]int64{
	1:  0,
	2:  100,
	3:  283,
	4:  500,
	5:  1000,
	6:  1300,
	7:  1650,
	8:  2000,
	9:  2250,
	10: 2250,
}

// XPForLevel returns the XP threshold of a level.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level < len(thresholds) {
		return thresholds[level]
	}
	l := float64(level)
	return int64(math.Round(100*(l-1) + 50*(l-1)*(l-2)))
}

// LevelForXP returns the largest tabulated level whose threshold is <= xp.
// XP exactly at a threshold reports the new level.
func LevelForXP(xp int64) int {
	for level := MaxLevel; level > 1; level-- {
		if xp >= thresholds[level] {
			return level
		}
	}
	return 1
}

// Progress returns the XP span bounding the level implied by xp and the
// completed fraction of it, clamped to [0,1]. At MaxLevel the span is empty
// and progress is 1.
func Progress(xp int64) ir.LevelProgress {
	level := LevelForXP(xp)
	current := XPForLevel(level)
	next := XPForLevel(level + 1)

	if next == current {
		return ir.LevelProgress{Current: current, Next: next, Progress: 1}
	}

	p := float64(xp-current) / float64(next-current)
	return ir.LevelProgress{Current: current, Next: next, Progress: math.Max(0, math.Min(p, 1))}
}

// Table returns thresholds for levels 1..upTo (inclusive).
func Table(upTo int) []int64 {
	if upTo < 1 {
		return nil
	}
	out := make([]int64, upTo)
	for l := 1; l <= upTo; l++ {
		out[l-1] = XPForLevel(l)
	}
	return out
}
