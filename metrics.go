package reactor

import (
	"sync/atomic"
	"time"
)

// Metrics tracks operational statistics for a reactor
type Metrics struct {
	// Turn counters
	Turns         atomic.Uint64 // completed turns
	Events        atomic.Uint64 // source events dispatched
	Wakeups       atomic.Uint64 // wakeup-token deliveries (Unpark)
	DroppedEvents atomic.Uint64 // events for already-dropped sources

	// Registration counters
	Registers   atomic.Uint64 // successful source registrations
	Deregisters atomic.Uint64 // selector deregistrations

	// Live-source gauge
	LiveSources atomic.Int64
	MaxSources  atomic.Int64 // high-water mark of LiveSources

	// Turn latency tracking
	TotalTurnLatencyNs atomic.Uint64

	// Lifecycle
	StartTime atomic.Int64 // UnixNano of metrics creation
	StopTime  atomic.Int64 // UnixNano of Stop (0 while running)
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordTurn records one completed turn and its dispatched event count
func (m *Metrics) RecordTurn(events int, latencyNs uint64) {
	m.Turns.Add(1)
	m.Events.Add(uint64(events))
	m.TotalTurnLatencyNs.Add(latencyNs)
}

// RecordRegister records a successful source registration
func (m *Metrics) RecordRegister() {
	m.Registers.Add(1)
	live := m.LiveSources.Add(1)
	for {
		max := m.MaxSources.Load()
		if live <= max {
			break
		}
		if m.MaxSources.CompareAndSwap(max, live) {
			break
		}
	}
}

// RecordDeregister records a selector deregistration
func (m *Metrics) RecordDeregister() {
	m.Deregisters.Add(1)
	m.LiveSources.Add(-1)
}

// RecordWakeup records one wakeup-token delivery
func (m *Metrics) RecordWakeup() {
	m.Wakeups.Add(1)
}

// RecordDroppedEvent records an event discarded for a missing source
func (m *Metrics) RecordDroppedEvent() {
	m.DroppedEvents.Add(1)
}

// Stop marks the reactor as stopped
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	Turns         uint64
	Events        uint64
	Wakeups       uint64
	DroppedEvents uint64
	Registers     uint64
	Deregisters   uint64

	LiveSources int64
	MaxSources  int64

	// Derived statistics
	AvgTurnLatencyNs uint64
	EventsPerTurn    float64
	TurnsPerSec      float64
	UptimeNs         uint64
}

// Snapshot creates a point-in-time snapshot of metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Turns:         m.Turns.Load(),
		Events:        m.Events.Load(),
		Wakeups:       m.Wakeups.Load(),
		DroppedEvents: m.DroppedEvents.Load(),
		Registers:     m.Registers.Load(),
		Deregisters:   m.Deregisters.Load(),
		LiveSources:   m.LiveSources.Load(),
		MaxSources:    m.MaxSources.Load(),
	}

	if snap.Turns > 0 {
		snap.AvgTurnLatencyNs = m.TotalTurnLatencyNs.Load() / snap.Turns
		snap.EventsPerTurn = float64(snap.Events) / float64(snap.Turns)
	}

	start := m.StartTime.Load()
	stop := m.StopTime.Load()
	if stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}
	if snap.UptimeNs > 0 {
		snap.TurnsPerSec = float64(snap.Turns) / (float64(snap.UptimeNs) / 1e9)
	}

	return snap
}

// Reset resets all counters (useful for testing)
func (m *Metrics) Reset() {
	m.Turns.Store(0)
	m.Events.Store(0)
	m.Wakeups.Store(0)
	m.DroppedEvents.Store(0)
	m.Registers.Store(0)
	m.Deregisters.Store(0)
	m.LiveSources.Store(0)
	m.MaxSources.Store(0)
	m.TotalTurnLatencyNs.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer interface allows pluggable telemetry collection
type Observer interface {
	// ObserveTurn is called after each turn with the number of source
	// events dispatched and the turn latency
	ObserveTurn(events int, latencyNs uint64)

	// ObserveRegister is called for each successful source registration
	ObserveRegister()

	// ObserveDeregister is called for each selector deregistration
	ObserveDeregister()

	// ObserveWakeup is called for each wakeup-token delivery
	ObserveWakeup()

	// ObserveDroppedEvent is called for each event whose source is gone
	ObserveDroppedEvent()
}

// NoOpObserver is a no-op implementation of Observer
type NoOpObserver struct{}

func (NoOpObserver) ObserveTurn(int, uint64) {}
func (NoOpObserver) ObserveRegister()        {}
func (NoOpObserver) ObserveDeregister()      {}
func (NoOpObserver) ObserveWakeup()          {}
func (NoOpObserver) ObserveDroppedEvent()    {}

// MetricsObserver implements Observer using the built-in Metrics
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveTurn(events int, latencyNs uint64) {
	o.metrics.RecordTurn(events, latencyNs)
}

func (o *MetricsObserver) ObserveRegister()     { o.metrics.RecordRegister() }
func (o *MetricsObserver) ObserveDeregister()   { o.metrics.RecordDeregister() }
func (o *MetricsObserver) ObserveWakeup()       { o.metrics.RecordWakeup() }
func (o *MetricsObserver) ObserveDroppedEvent() { o.metrics.RecordDroppedEvent() }

// Compile-time interface checks
var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = (*NoOpObserver)(nil)
)
