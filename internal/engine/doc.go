// Package engine is the orchestration core: it owns every long-lived
// subsystem, drives the fixed-cadence frame loop, and dispatches
// per-frame work to registered handlers.
//
// ARCHITECTURE:
//
// Single-Threaded Frame Loop:
// Exactly one goroutine executes the loop. Every handler invocation,
// subsystem call made from a handler, and presentation call happens on
// that goroutine. This ensures:
// - Deterministic, race-free per-frame ordering
// - Simple reasoning about who mutates engine-owned state
//
// Frame Phases (fixed, total order):
// 1. Fold pending handler registrations/removals (frame boundary)
// 2. Poll external events; walk input handlers with short-circuit
// 3. Drain background job results, then run tick handlers
// 4. World frame bound; run draw handlers
// 5. HUD frame bound; run HUD handlers by order tag, debug overlay
// 6. Present; write a screenshot if one was requested
// 7. Sleep out the remainder of the frame budget
//
// The background job pool is the only source of parallelism. Workers
// never touch engine-owned state: results land in a completion queue
// drained exactly once per frame at the start of the tick phase, so
// tick handlers are the sole observers of asynchronous outcomes.
//
// Handler registrations return tokens; removal, like addition, takes
// effect at the next frame boundary. Game sessions register through a
// session-scoped handle so ending a session removes everything it
// registered.
package engine
