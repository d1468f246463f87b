package session

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Outcome classifies how a turn ended.
type Outcome string

const (
	OutcomeTooShort  Outcome = "too_short"
	OutcomeNoSpeech  Outcome = "no_speech"
	OutcomeClarified Outcome = "clarified"
	OutcomeCompleted Outcome = "completed"
	OutcomeFallback  Outcome = "fallback"
)

var outcomes = []Outcome{OutcomeTooShort, OutcomeNoSpeech, OutcomeClarified, OutcomeCompleted, OutcomeFallback}

// TurnMetrics holds the stage latencies of one turn. Zero means the stage did not run.
type TurnMetrics struct {
	Transcribe time.Duration
	Interpret  time.Duration
	Synthesize time.Duration
	Total      time.Duration

	AudioBytes int
	Outcome    Outcome
}

// historySize is how many recent turns Average covers.
const historySize = 100

// Metrics aggregates turn metrics from every session. Goroutine-safe.
type Metrics struct {
	mu sync.Mutex

	sessionsActive int64
	sessionsTotal  int64
	ordersTotal    int64
	outcomes       map[Outcome]int64

	// cumulative stage time in seconds, Prometheus summary style
	transcribeSum, interpretSum, synthesizeSum, totalSum float64
	transcribeN, interpretN, synthesizeN, totalN       int64

	history []TurnMetrics
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{
		outcomes: make(map[Outcome]int64),
		history:  make([]TurnMetrics, 0, historySize),
	}
}

// SessionOpened counts a new connection.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.sessionsActive++
	m.sessionsTotal++
	m.mu.Unlock()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.sessionsActive--
	m.mu.Unlock()
}

// OrderConfirmed counts a finalized order.
func (m *Metrics) OrderConfirmed() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.ordersTotal++
	m.mu.Unlock()
}

// Record archives one turn.
func (m *Metrics) Record(t TurnMetrics) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcomes[t.Outcome]++
	if t.Transcribe > 0 {
		m.transcribeSum += t.Transcribe.Seconds()
		m.transcribeN++
	}
	if t.Interpret > 0 {
		m.interpretSum += t.Interpret.Seconds()
		m.interpretN++
	}
	if t.Synthesize > 0 {
		m.synthesizeSum += t.Synthesize.Seconds()
		m.synthesizeN++
	}
	m.totalSum += t.Total.Seconds()
	m.totalN++

	m.history = append(m.history, t)
	if len(m.history) > historySize {
		m.history = m.history[1:]
	}
}

// Turns returns the number of turns with the given outcome.
func (m *Metrics) Turns(o Outcome) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[o]
}

// ActiveSessions returns the number of open sessions.
func (m *Metrics) ActiveSessions() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionsActive
}

// Average returns mean latencies over recent turns.
func (m *Metrics) Average() TurnMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) == 0 {
		return TurnMetrics{}
	}

	var avg TurnMetrics
	for _, h := range m.history {
		avg.Transcribe += h.Transcribe
		avg.Interpret += h.Interpret
		avg.Synthesize += h.Synthesize
		avg.Total += h.Total
	}

	n := time.Duration(len(m.history))
	avg.Transcribe /= n
	avg.Interpret /= n
	avg.Synthesize /= n
	avg.Total /= n
	return avg
}

// WritePrometheus writes all counters in the Prometheus text exposition format.
func (m *Metrics) WritePrometheus(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("# HELP drivethru_sessions_active Open voice sessions.\n")
	p("# TYPE drivethru_sessions_active gauge\n")
	p("drivethru_sessions_active %d\n", m.sessionsActive)
	p("# HELP drivethru_sessions_total Voice sessions opened.\n")
	p("# TYPE drivethru_sessions_total counter\n")
	p("drivethru_sessions_total %d\n", m.sessionsTotal)
	p("# HELP drivethru_orders_total Orders confirmed.\n")
	p("# TYPE drivethru_orders_total counter\n")
	p("drivethru_orders_total %d\n", m.ordersTotal)

	p("# HELP drivethru_turns_total Turns by outcome.\n")
	p("# TYPE drivethru_turns_total counter\n")
	for _, o := range outcomes {
		p("drivethru_turns_total{outcome=%q} %d\n", o, m.outcomes[o])
	}

	p("# HELP drivethru_stage_seconds Turn stage latency.\n")
	p("# TYPE drivethru_stage_seconds summary\n")
	stages := []struct {
		name string
		sum  float64
		n    int64
	}{
		{"transcribe", m.transcribeSum, m.transcribeN},
		{"interpret", m.interpretSum, m.interpretN},
		{"synthesize", m.synthesizeSum, m.synthesizeN},
		{"total", m.totalSum, m.totalN},
	}
	for _, s := range stages {
		p("drivethru_stage_seconds_sum{stage=%q} %g\n", s.name, s.sum)
		p("drivethru_stage_seconds_count{stage=%q} %d\n", s.name, s.n)
	}
	return err
}

// FormatLatency returns a one-line summary for logs.
func (t TurnMetrics) FormatLatency() string {
	return formatDuration(t.Transcribe) + " STT | " +
		formatDuration(t.Interpret) + " LLM | " +
		formatDuration(t.Synthesize) + " TTS | " +
		formatDuration(t.Total) + " TOTAL"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}
