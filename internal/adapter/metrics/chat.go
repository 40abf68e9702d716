package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics tracks tutoring traffic and model spend.
type ChatMetrics struct {
	Replies           *prometheus.CounterVec
	Emotions          *prometheus.CounterVec
	CostUSD           prometheus.Counter
	NoteChunks        prometheus.Counter
	ActiveConnections prometheus.Gauge
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		Replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Chat replies by study mode and outcome.",
		}, []string{"study_mode", "outcome"}),
		Emotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "emotions_total",
			Help:      "Detected student emotions.",
		}, []string{"emotion"}),
		CostUSD: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "cost_usd_total",
			Help:      "Estimated language model spend in USD.",
		}),
		NoteChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notes",
			Name:      "chunks_stored_total",
			Help:      "Note chunks embedded and stored.",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of open chat sockets.",
		}),
	}

	reg.MustRegister(m.Replies, m.Emotions, m.CostUSD, m.NoteChunks, m.ActiveConnections)
	return m
}
