// Package sentinel signals when a marker row inside scrollable content comes
// into view, gated on "more data available" and "not already loading".
package sentinel

import "sync"

// Marker is a row inside scrollable content
type Marker struct {
	Line int
}

// Window is the visible slice of scrollable content: rows [Top, Top+Height)
type Window struct {
	Top    int
	Height int
}

// Intersects reports whether the marker is within the window grown by margin rows on each side
func (w Window) Intersects(m Marker, margin int) bool {
	if w.Height <= 0 {
		return false
	}
	return m.Line >= w.Top-margin && m.Line < w.Top+w.Height+margin
}

// Gate reports whether more data is available and whether a load is in flight
type Gate func() (hasMore, loading bool)

// Options configures a Sentinel
type Options struct {
	Margin int
	Gate   Gate
}

// Sentinel watches one marker. Safe for concurrent use.
type Sentinel struct {
	mu        sync.Mutex
	margin    int
	gate      Gate
	marker    Marker
	onVisible func()
	observing bool
	armed     bool
	lastMore  bool
	lastLoad  bool
}

func New(opts Options) *Sentinel {
	gate := opts.Gate
	if gate == nil {
		gate = func() (bool, bool) { return true, false }
	}
	return &Sentinel{margin: opts.Margin, gate: gate}
}

// Observe starts watching marker, replacing any previous observation
func (s *Sentinel) Observe(marker Marker, onVisible func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = marker
	s.onVisible = onVisible
	s.observing = true
	s.armed = true
}

// Move repositions the observed marker without re-arming it
func (s *Sentinel) Move(marker Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = marker
}

// Unobserve releases the observation; Check becomes a no-op
func (s *Sentinel) Unobserve() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observing = false
	s.onVisible = nil
	s.armed = false
}

// Configure changes the margin and re-establishes the observation
func (s *Sentinel) Configure(margin int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.margin = margin
	if s.observing {
		s.armed = true
	}
}

// Observing reports whether a marker is being watched
func (s *Sentinel) Observing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observing
}

// Check evaluates the marker against the visible window and calls the
// callback when it intersects, the gate is open and the sentinel is armed.
// The sentinel disarms after firing and re-arms when the marker leaves the
// window or the gate state changes. Reports whether the callback ran.
func (s *Sentinel) Check(w Window) bool {
	s.mu.Lock()
	if !s.observing {
		s.mu.Unlock()
		return false
	}

	hasMore, loading := s.gate()
	if hasMore != s.lastMore || loading != s.lastLoad {
		s.lastMore, s.lastLoad = hasMore, loading
		s.armed = true
	}

	if !w.Intersects(s.marker, s.margin) {
		s.armed = true
		s.mu.Unlock()
		return false
	}
	if !s.armed || !hasMore || loading {
		s.mu.Unlock()
		return false
	}

	s.armed = false
	cb := s.onVisible
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
	return true
}
