// Package exam implements ephemeral quiz sessions over a user's existing
// cards. A session draws a fixed-size random sample from a card pool,
// presents one question at a time behind a reveal step, and reports a score
// and weak spots when it ends. Sessions live only in memory, inside a
// Registry; they are never persisted and do not touch review scheduling.
//
// Timeouts are cooperative: nothing expires a session on its own, callers
// poll CheckTimeout. A timed-out session is scored on the questions answered
// before the deadline.
package exam
