// Package ir provides the core progression types for the gamify engine.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps ir the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Conditions, reward grants, mission goals and achievement conditions
//     are sealed variants; evaluators switch over them exhaustively and
//     treat Unknown* variants as never satisfied.
//   - XP is int64. Streak and reward multipliers are the only floats.
//   - All JSON tags use snake_case
package ir
