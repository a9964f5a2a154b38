package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — Prometheus-метрики сессий забегов
type Metrics struct {
	ticks        prometheus.Counter
	active       prometheus.Gauge
	tickDuration prometheus.Histogram
	kills        *prometheus.CounterVec
	gameOvers    prometheus.Counter
	records      prometheus.Counter
}

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ufo",
			Subsystem: "session",
			Name:      "ticks_total",
			Help:      "Число выполненных тиков симуляции.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ufo",
			Subsystem: "session",
			Name:      "active",
			Help:      "Количество открытых сессий.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ufo",
			Subsystem: "session",
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика симуляции.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .016},
		}),
		kills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ufo",
			Subsystem: "session",
			Name:      "enemies_killed_total",
			Help:      "Сбитые враги по видам.",
		}, []string{"kind"}),
		gameOvers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ufo",
			Subsystem: "session",
			Name:      "game_overs_total",
			Help:      "Завершённые забеги.",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ufo",
			Subsystem: "session",
			Name:      "high_scores_total",
			Help:      "Сколько раз был побит рекорд.",
		}),
	}
	reg.MustRegister(m.ticks, m.active, m.tickDuration, m.kills, m.gameOvers, m.records)
	return m
}
