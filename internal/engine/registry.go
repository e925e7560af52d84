package engine

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/veldtgames/citadel/internal/input"
)

// Registration is the token returned by every register call. Holding it
// is the only way to unregister: calling Remove marks the handler for
// removal at the next frame boundary. Remove is idempotent and safe
// from any goroutine.
//
// Tokens close the classic dangling-handler hazard: a session that
// registered handlers can (and must) remove them on teardown instead of
// relying on the handler object becoming inert.
type Registration struct {
	removed atomic.Bool
}

// Remove marks the registration for removal. The handler may still be
// invoked for the remainder of the frame in which Remove is called; it
// is never invoked after the next frame boundary.
func (r *Registration) Remove() {
	r.removed.Store(true)
}

// Removed reports whether Remove was called.
func (r *Registration) Removed() bool {
	return r.removed.Load()
}

// entry pairs a handler with its registration metadata. seq is the
// global registration sequence used for dispatch order; order is the
// HUD compositing tag (ignored for other categories).
type entry[H any] struct {
	seq   uint64
	order int
	h     H
	reg   *Registration
}

// list is one handler category. active is only touched from the loop
// goroutine during dispatch; additions land in pending under the
// registry lock and are folded in at the frame boundary. This keeps
// mid-dispatch registrations from invalidating the iteration in
// progress: they take effect the following frame.
type list[H any] struct {
	active  []entry[H]
	pending []entry[H]
}

func (l *list[H]) add(e entry[H]) {
	l.pending = append(l.pending, e)
}

// apply folds pending additions into active and drops removed entries.
// byOrder additionally sorts by (order, seq) - the HUD compositing
// contract; seq is unique so the sort is deterministic.
func (l *list[H]) apply(byOrder bool) {
	changed := len(l.pending) > 0
	if len(l.pending) > 0 {
		l.active = append(l.active, l.pending...)
		l.pending = nil
	}
	kept := l.active[:0]
	for _, e := range l.active {
		if e.reg.Removed() {
			changed = true
			continue
		}
		kept = append(kept, e)
	}
	l.active = kept
	if changed && byOrder {
		sort.SliceStable(l.active, func(i, j int) bool {
			if l.active[i].order != l.active[j].order {
				return l.active[i].order < l.active[j].order
			}
			return l.active[i].seq < l.active[j].seq
		})
	}
}

// registry holds the engine's five handler lists.
//
// Registration is safe from any goroutine; dispatch (iterating active
// slices) happens only on the loop goroutine, after applyPending has
// run at the frame boundary.
type registry struct {
	mu      sync.Mutex
	nextSeq uint64

	onInput  list[InputHandler]
	onTick   list[TickHandler]
	onDraw   list[DrawHandler]
	onHUD    list[HudHandler]
	onResize list[ResizeHandler]
}

func newRegistry() *registry {
	return &registry{}
}

func (r *registry) registerInput(h InputHandler) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg := &Registration{}
	r.nextSeq++
	r.onInput.add(entry[InputHandler]{seq: r.nextSeq, h: h, reg: reg})
	return reg
}

func (r *registry) registerTick(h TickHandler) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg := &Registration{}
	r.nextSeq++
	r.onTick.add(entry[TickHandler]{seq: r.nextSeq, h: h, reg: reg})
	return reg
}

func (r *registry) registerDraw(h DrawHandler) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg := &Registration{}
	r.nextSeq++
	r.onDraw.add(entry[DrawHandler]{seq: r.nextSeq, h: h, reg: reg})
	return reg
}

func (r *registry) registerHUD(h HudHandler, order int) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg := &Registration{}
	r.nextSeq++
	r.onHUD.add(entry[HudHandler]{seq: r.nextSeq, order: order, h: h, reg: reg})
	return reg
}

func (r *registry) registerResize(h ResizeHandler) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg := &Registration{}
	r.nextSeq++
	r.onResize.add(entry[ResizeHandler]{seq: r.nextSeq, h: h, reg: reg})
	return reg
}

// applyPending folds queued additions and removals into the active
// lists. Called once per frame, at the frame boundary, on the loop
// goroutine.
func (r *registry) applyPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onInput.apply(false)
	r.onTick.apply(false)
	r.onDraw.apply(false)
	r.onHUD.apply(true)
	r.onResize.apply(false)
}

// dispatchInput walks the input chain in registration order, stopping
// at the first handler that consumes the event.
func (r *registry) dispatchInput(ev input.Event) bool {
	for _, e := range r.onInput.active {
		if e.h.OnInput(ev) {
			return true
		}
	}
	return false
}

func (r *registry) dispatchTick() {
	for _, e := range r.onTick.active {
		e.h.OnTick()
	}
}

func (r *registry) dispatchDraw() {
	for _, e := range r.onDraw.active {
		e.h.OnDraw()
	}
}

func (r *registry) dispatchHUD() {
	for _, e := range r.onHUD.active {
		e.h.OnDrawHUD()
	}
}

// dispatchResize walks resize handlers in registration order, stopping
// at the first that reports the resize handled.
func (r *registry) dispatchResize(dw, dh int) bool {
	for _, e := range r.onResize.active {
		if e.h.OnResize(dw, dh) {
			return true
		}
	}
	return false
}
