// Package engine is the Event Processor and the public facade of the
// progression engine.
//
// TriggerEvent is the only entry point that drives evaluation. For one
// event it runs, with the user locked:
//
//  1. Stamp the event with the next logical seq number.
//  2. Add payload "xp", if present, and count the event on the user.
//  3. Resolve at most one rule (highest priority whose conditions hold)
//     and apply its reward.
//  4. Run the mission check, then the achievement check.
//
// Analytics tracking and notifications happen after the user is unlocked,
// so observers may call back into the engine.
//
// CRITICAL PATTERNS:
//
// Per-user serialization:
// Events for one user never interleave; events for different users run in
// parallel. Catalogs (rules, missions, templates) are copy-on-write, so
// editing them never disturbs an event in flight.
//
// Logical clock:
// Event order is the seq number from clock.Sequence. Wall time is only
// used for streak windows, time-window conditions and record timestamps.
package engine
