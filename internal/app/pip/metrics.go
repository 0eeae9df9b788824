package pip

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use as a nil pointer.
type Metrics struct {
	framesDrawn   prometheus.Counter
	framesSkipped prometheus.Counter
	sessions      prometheus.Counter
	startFailures prometheus.Counter
	audioLevel    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		framesDrawn: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pipcast", Subsystem: "pip", Name: "frames_drawn_total",
			Help: "Frames composited onto the floating window surface.",
		}),
		framesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pipcast", Subsystem: "pip", Name: "frames_skipped_total",
			Help: "Draw ticks that failed and were skipped.",
		}),
		sessions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pipcast", Subsystem: "pip", Name: "sessions_total",
			Help: "Floating window sessions started.",
		}),
		startFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pipcast", Subsystem: "pip", Name: "session_start_failures_total",
			Help: "Sessions torn down while starting.",
		}),
		audioLevel: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "pipcast", Subsystem: "pip", Name: "audio_level",
			Help: "Smoothed audio level of the participant on stage.",
		}),
	}
}

func (m *Metrics) frameDrawn() {
	if m != nil {
		m.framesDrawn.Inc()
	}
}

func (m *Metrics) frameSkipped() {
	if m != nil {
		m.framesSkipped.Inc()
	}
}

func (m *Metrics) sessionStarted() {
	if m != nil {
		m.sessions.Inc()
	}
}

func (m *Metrics) startFailed() {
	if m != nil {
		m.startFailures.Inc()
	}
}

func (m *Metrics) level(v float64) {
	if m != nil {
		m.audioLevel.Set(v)
	}
}
