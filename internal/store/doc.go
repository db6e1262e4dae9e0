// Package store is the Progression Store: the in-memory owner of every
// user's progression record.
//
// The store is the only component that mutates user progression fields.
// Other components either call the single-purpose operations (AddXP,
// AddBadge, UpdateStreak) or run a sequence of mutations atomically through
// Mutate, which hands them a *Record bound to one locked user.
//
// # Concurrency
//
// Each user has its own mutex. A Mutate callback runs with that user locked,
// so a whole event (rule reward, mission checks, achievement checks)
// observes one consistent record. Different users never contend beyond a
// brief read lock on the user index.
//
// # Invariants
//
//   - Level always equals levels.LevelForXP(XP) once a mutation returns.
//   - XP never drops below zero.
//   - Badges are unique by ID; Achievements are unique by (Source, ID).
//   - Readers always receive deep copies; store-owned slices never escape.
package store
