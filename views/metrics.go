package views

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kode4food/tremor"
)

// Metrics exports playback progress as prometheus collectors
type Metrics struct {
	frames   *prometheus.CounterVec
	events   prometheus.Counter
	clears   prometheus.Counter
	pauses   prometheus.Counter
	resumes  prometheus.Counter
	current  prometheus.Gauge
	progress prometheus.Gauge
	step     prometheus.Gauge
	state    *prometheus.GaugeVec
}

const (
	prometheusNamespace = "tremor"

	motionLabel = "motion"
	stateLabel  = "state"

	framesMetricName   = "frames_total"
	eventsMetricName   = "events_shown_total"
	clearsMetricName   = "clears_total"
	pausesMetricName   = "transition_pauses_total"
	resumesMetricName  = "transition_resumes_total"
	currentMetricName  = "playback_timestamp_seconds"
	progressMetricName = "playback_progress_ratio"
	stepMetricName     = "playback_step_seconds"
	stateMetricName    = "playback_state"
)

var states = []tremor.State{tremor.Stopped, tremor.Playing, tremor.Paused}

var _ tremor.View = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them. A collector that
// is already registered is reused
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      framesMetricName,
			Help:      "Frames pushed by the engine, by motion",
		}, []string{motionLabel}),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      eventsMetricName,
			Help:      "Events delivered in frames",
		}),
		clears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      clearsMetricName,
			Help:      "View clears caused by reset or scrub",
		}),
		pauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      pausesMetricName,
			Help:      "Times view transitions were frozen",
		}),
		resumes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      resumesMetricName,
			Help:      "Times view transitions were resumed",
		}),
		current: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Name:      currentMetricName,
			Help:      "Unix time of the current playback instant",
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Name:      progressMetricName,
			Help:      "Position of the playback instant within the extent",
		}),
		step: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Name:      stepMetricName,
			Help:      "Window width and per-tick advance",
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Name:      stateMetricName,
			Help:      "1 for the current playback state, 0 otherwise",
		}, []string{stateLabel}),
	}

	err := errors.Join(
		register(reg, &m.frames),
		register(reg, &m.events),
		register(reg, &m.clears),
		register(reg, &m.pauses),
		register(reg, &m.resumes),
		register(reg, &m.current),
		register(reg, &m.progress),
		register(reg, &m.step),
		register(reg, &m.state),
	)
	if err != nil {
		return nil, err
	}
	m.setState(tremor.Stopped)
	return m, nil
}

// Tick records the frame
func (m *Metrics) Tick(f *tremor.Frame) {
	m.frames.With(prometheus.Labels{motionLabel: f.Motion.String()}).Inc()
	m.events.Add(float64(len(f.Events)))
	m.current.Set(float64(f.Time.UnixMilli()) / 1000)
	m.progress.Set(f.Progress)
	m.step.Set(f.Step.Seconds())
	m.setState(f.State)
}

// Clear counts a clear
func (m *Metrics) Clear() {
	m.clears.Inc()
}

// PauseTransitions counts a pause
func (m *Metrics) PauseTransitions() {
	m.pauses.Inc()
}

// ResumeTransitions counts a resume
func (m *Metrics) ResumeTransitions() {
	m.resumes.Inc()
}

func (m *Metrics) setState(s tremor.State) {
	for _, st := range states {
		v := 0.0
		if st == s {
			v = 1
		}
		m.state.With(prometheus.Labels{stateLabel: st.String()}).Set(v)
	}
}

// register swaps in an already registered collector of the same
// description so several engines can share one registry
func register[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			*c = existing
			return nil
		}
	}
	return err
}
