package reactor

import (
	"sync"
	"testing"
)

func TestMetricsRecordTurn(t *testing.T) {
	m := NewMetrics()
	m.RecordTurn(3, 1000)
	m.RecordTurn(1, 3000)

	snap := m.Snapshot()
	if snap.Turns != 2 {
		t.Errorf("Turns = %d, want 2", snap.Turns)
	}
	if snap.Events != 4 {
		t.Errorf("Events = %d, want 4", snap.Events)
	}
	if snap.AvgTurnLatencyNs != 2000 {
		t.Errorf("AvgTurnLatencyNs = %d, want 2000", snap.AvgTurnLatencyNs)
	}
	if snap.EventsPerTurn != 2.0 {
		t.Errorf("EventsPerTurn = %f, want 2", snap.EventsPerTurn)
	}
}

func TestMetricsSourceGauge(t *testing.T) {
	m := NewMetrics()
	m.RecordRegister()
	m.RecordRegister()
	m.RecordRegister()
	m.RecordDeregister()

	snap := m.Snapshot()
	if snap.LiveSources != 2 {
		t.Errorf("LiveSources = %d, want 2", snap.LiveSources)
	}
	if snap.MaxSources != 3 {
		t.Errorf("MaxSources = %d, want 3", snap.MaxSources)
	}
	if snap.Registers != 3 || snap.Deregisters != 1 {
		t.Errorf("counters = %d/%d, want 3/1", snap.Registers, snap.Deregisters)
	}
}

func TestMetricsMaxGaugeConcurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordRegister()
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	if snap.MaxSources != 800 || snap.LiveSources != 800 {
		t.Errorf("gauges = max %d live %d, want 800/800", snap.MaxSources, snap.LiveSources)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordTurn(1, 100)
	m.RecordRegister()
	m.RecordWakeup()
	m.RecordDroppedEvent()
	m.Reset()

	snap := m.Snapshot()
	if snap.Turns != 0 || snap.Events != 0 || snap.Wakeups != 0 ||
		snap.DroppedEvents != 0 || snap.Registers != 0 || snap.LiveSources != 0 {
		t.Errorf("reset left residue: %+v", snap)
	}
}

func TestMetricsObserverForwards(t *testing.T) {
	m := NewMetrics()
	var o Observer = NewMetricsObserver(m)

	o.ObserveTurn(2, 500)
	o.ObserveRegister()
	o.ObserveWakeup()
	o.ObserveDroppedEvent()
	o.ObserveDeregister()

	snap := m.Snapshot()
	if snap.Turns != 1 || snap.Events != 2 || snap.Wakeups != 1 ||
		snap.DroppedEvents != 1 || snap.Registers != 1 || snap.Deregisters != 1 {
		t.Errorf("observer did not forward: %+v", snap)
	}
}
