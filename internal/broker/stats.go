package broker

import (
	"log/slog"
	"time"
)

const statsInterval = 30 * time.Second

// StatsReporter periodically logs broker-wide counters: messages
// fanned out and sessions in the SessionTable. It is the adapted form
// of the teacher's QoS retry ticker — same stop-channel/ticker shape,
// repurposed here because this broker tracks inflight state on each
// Session directly rather than in a second, parallel bookkeeping
// structure.
type StatsReporter struct {
	broker *Broker
	ticker *time.Ticker
	stopCh chan struct{}
}

// NewStatsReporter starts a background loop that logs broker.log
// performance counters every statsInterval, until Stop is called.
func NewStatsReporter(b *Broker) *StatsReporter {
	r := &StatsReporter{
		broker: b,
		ticker: time.NewTicker(statsInterval),
		stopCh: make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *StatsReporter) Stop() {
	close(r.stopCh)
	r.ticker.Stop()
}

func (r *StatsReporter) loop() {
	for {
		select {
		case <-r.stopCh:
			return
		case <-r.ticker.C:
			r.report()
		}
	}
}

func (r *StatsReporter) report() {
	r.broker.log.LogPerformance("messages_sent", r.broker.MessagesSent(), "count",
		slog.Int("sessions", r.broker.Sessions.count()))
}

func (st *SessionTable) count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
