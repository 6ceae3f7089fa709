package metrics

import (
	"github.com/kilianp07/sortie/core/events"
	coremetrics "github.com/kilianp07/sortie/core/metrics"
	"github.com/kilianp07/sortie/infra/logger"
	"github.com/kilianp07/sortie/internal/eventbus"
)

// StartEventCollector subscribes to the bus and records every roster event
// on sink. The returned channel is closed once the bus is closed and all
// buffered events have been recorded.
func StartEventCollector(bus *eventbus.TypedBus[events.RosterEvent], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		for ev := range sub {
			if err := Record(sink, ev); err != nil {
				log.Warnf("record %s %s v%d: %v", ev.Kind, ev.WeekStart, ev.Version, err)
			}
		}
	}()
	return done
}

// Record maps a roster event onto the sink methods.
func Record(sink coremetrics.MetricsSink, ev events.RosterEvent) error {
	if err := sink.RecordRoster(coremetrics.RosterEvent{
		WeekStart: ev.WeekStart,
		Version:   ev.Version,
		BaseICAO:  ev.BaseICAO,
		Coverage:  ev.Coverage,
		Weather:   ev.Weather,
		Time:      ev.Time,
	}); err != nil {
		return err
	}
	if ev.Kind != events.KindReallocated {
		return nil
	}
	return sink.RecordReallocation(coremetrics.ReallocationEvent{
		WeekStart:     ev.WeekStart,
		Version:       ev.Version,
		EventType:     ev.EventType,
		CorrelationID: ev.CorrelationID,
		ChurnRate:     ev.ChurnRate,
		TotalChanges:  ev.TotalChanges,
		AffectedSlots: ev.AffectedSlots,
		Time:          ev.Time,
	})
}
