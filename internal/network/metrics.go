package network

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — Prometheus-метрики KCP-сервера
type Metrics struct {
	connections prometheus.Gauge
	frames      *prometheus.CounterVec
	rejected    *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ufo",
			Subsystem: "kcp",
			Name:      "connections",
			Help:      "Подключённые KCP-клиенты.",
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ufo",
			Subsystem: "kcp",
			Name:      "frames_total",
			Help:      "Кадры по направлению и типу сообщения.",
		}, []string{"direction", "type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ufo",
			Subsystem: "kcp",
			Name:      "rejected_total",
			Help:      "Отклонённые запросы клиентов.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.connections, m.frames, m.rejected)
	return m
}

func (m *Metrics) frame(direction string, t MessageType) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(direction, t.String()).Inc()
}

func (m *Metrics) reject(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) connected(delta float64) {
	if m == nil {
		return
	}
	m.connections.Add(delta)
}
