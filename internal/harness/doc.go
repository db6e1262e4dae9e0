// Package harness runs scripted gamification scenarios against the engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: first_steps
//	description: "Clicks level a user up and complete a mission"
//	configs:
//	  - ../configs/basic.yaml        # relative to the scenario file
//	rules:                            # inline config, appended to the files'
//	  - id: click
//	    event_type: click
//	    reward: { xp: 40 }
//	users:
//	  - id: alice
//	steps:
//	  - event: click
//	    user: alice
//	    repeat: 3
//	    expect: { level: 2, missions: [reach-100] }
//	  - advance: 20h
//	assertions:
//	  - type: user
//	    user: alice
//	    xp: 130
//	  - type: leaderboard
//	    order: [alice, bob]
//
// # Assertion Types
//
//   - user: xp, level and badge names of a user
//   - leaderboard: the leading user ids in rank order
//   - mission_completed: a mission completion record, optionally its count
//   - achievement_earned: an earned achievement template
//   - streak: current and max count of a streak kind
//   - notification_count: how many notifications a topic carried
//
// # Deterministic Runs
//
// Every run gets a fresh engine with a manual wall clock (advanced only by
// advance steps), sequential ids and a fresh logical sequence. Environment
// settings are ignored. The same scenario therefore always produces the
// same snapshot, which golden tests compare byte for byte.
package harness
