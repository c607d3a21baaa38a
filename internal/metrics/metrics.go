package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder 业务指标
type Recorder struct {
	estimates      *prometheus.CounterVec
	sessions       *prometheus.CounterVec
	energy         prometheus.Counter
	activeSessions prometheus.Gauge
	waitMinutes    prometheus.Histogram
}

// New 在 reg 上注册指标，reg 为 nil 时使用默认注册表；已注册的指标直接复用
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evcharge_estimates_total",
			Help: "Number of estimates computed",
		}, []string{"kind"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evcharge_sessions_total",
			Help: "Number of charging sessions finished",
		}, []string{"status"}),
		energy: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evcharge_energy_delivered_kwh_total",
			Help: "Energy delivered by simulated sessions",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evcharge_active_sessions",
			Help: "Charging sessions currently simulated",
		}),
		waitMinutes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evcharge_wait_estimate_minutes",
			Help:    "Estimated queue wait in minutes",
			Buckets: []float64{0, 5, 15, 30, 60, 120, 240},
		}),
	}

	var err error
	if r.estimates, err = register(reg, r.estimates); err != nil {
		return nil, err
	}
	if r.sessions, err = register(reg, r.sessions); err != nil {
		return nil, err
	}
	if r.energy, err = register(reg, r.energy); err != nil {
		return nil, err
	}
	if r.activeSessions, err = register(reg, r.activeSessions); err != nil {
		return nil, err
	}
	if r.waitMinutes, err = register(reg, r.waitMinutes); err != nil {
		return nil, err
	}
	return r, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveEstimate 记录一次估算
func (r *Recorder) ObserveEstimate(kind string) {
	if r == nil {
		return
	}
	r.estimates.WithLabelValues(kind).Inc()
}

// ObserveWait 记录等待时间估算
func (r *Recorder) ObserveWait(minutes int) {
	if r == nil {
		return
	}
	r.estimates.WithLabelValues("wait_time").Inc()
	r.waitMinutes.Observe(float64(minutes))
}

// SessionStarted 会话开始
func (r *Recorder) SessionStarted() {
	if r == nil {
		return
	}
	r.activeSessions.Inc()
}

// SessionFinished 会话结束
func (r *Recorder) SessionFinished(status string, energyKwh float64) {
	if r == nil {
		return
	}
	r.activeSessions.Dec()
	r.sessions.WithLabelValues(status).Inc()
	if energyKwh > 0 {
		r.energy.Add(energyKwh)
	}
}
