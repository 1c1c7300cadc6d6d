// Package metrics implements programmer.Metrics with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/moffa90/go-flexfx/programmer"
	"github.com/moffa90/go-flexfx/protocol"
)

const namespace = "flexfx"

// Metrics counts protocol traffic by command family.
type Metrics struct {
	framesSent     *prometheus.CounterVec
	acksReceived   *prometheus.CounterVec
	repliesDropped *prometheus.CounterVec
	ackWait        *prometheus.HistogramVec
}

var _ programmer.Metrics = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	met := &Metrics{
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "protocol", Name: "frames_sent_total", Help: "Request frames sent"}, []string{"command"}),
		acksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "protocol", Name: "acks_received_total", Help: "Matching acknowledgements received"}, []string{"command"}),
		repliesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "protocol", Name: "replies_discarded_total", Help: "Replies discarded while waiting for an acknowledgement"}, []string{"expected", "got"}),
		ackWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "protocol", Name: "ack_wait_seconds", Help: "Time from request to matching acknowledgement",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14)}, []string{"command"}),
	}

	reg.MustRegister(met.framesSent, met.acksReceived, met.repliesDropped, met.ackWait)
	return met
}

func (m *Metrics) FrameSent(cmd protocol.Command) {
	m.framesSent.WithLabelValues(family(cmd)).Inc()
}

func (m *Metrics) AckReceived(cmd protocol.Command, wait time.Duration) {
	m.acksReceived.WithLabelValues(family(cmd)).Inc()
	m.ackWait.WithLabelValues(family(cmd)).Observe(wait.Seconds())
}

func (m *Metrics) ReplyDiscarded(expected, got protocol.Command) {
	m.repliesDropped.WithLabelValues(family(expected), family(got)).Inc()
}

// family collapses indexed commands so label cardinality stays bounded.
func family(cmd protocol.Command) string {
	if _, ok := cmd.IsRAMBlock(); ok {
		return "ram-block"
	}
	switch {
	case cmd == protocol.CmdSettingsNotify:
		return cmd.String()
	case cmd&0xFF00 == protocol.CmdLabelBase:
		return "label"
	case cmd&0xFF0F == protocol.CmdPresetRead:
		return "preset-read"
	case cmd&0xFF0F == protocol.CmdPresetWrite:
		return "preset-write"
	}

	switch cmd {
	case protocol.CmdNone, protocol.CmdFlashErase, protocol.CmdFlashWrite, protocol.CmdFlashFinalize,
		protocol.CmdUploadStart, protocol.CmdUploadContinue:
		return cmd.String()
	}
	return "other"
}
