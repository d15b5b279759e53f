package observability

import (
	"context"
	"time"

	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of one process.
type Metrics struct {
	bot string

	StateEnter       *prometheus.CounterVec
	Finish           *prometheus.CounterVec
	TransitionErrors *prometheus.CounterVec
	Messages         *prometheus.CounterVec
	RespondDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
// bot labels the message counters, which do not see engine events.
func NewMetrics(reg prometheus.Registerer, bot string) (*Metrics, error) {
	m := &Metrics{
		bot: bot,
		StateEnter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagbot_state_enter_total",
				Help: "Total number of states entered",
			},
			[]string{"bot", "state"},
		),
		Finish: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagbot_finish_total",
				Help: "Total number of finished flows by reason",
			},
			[]string{"bot", "reason"},
		),
		TransitionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagbot_transition_errors_total",
				Help: "Total number of respond calls that failed and reset the conversation",
			},
			[]string{"bot"},
		),
		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagbot_messages_total",
				Help: "Total number of messages answered",
			},
			[]string{"bot"},
		),
		RespondDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tagbot_respond_duration_seconds",
				Help:    "Duration of respond calls, including persistence",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"bot"},
		),
	}

	for _, c := range []prometheus.Collector{m.StateEnter, m.Finish, m.TransitionErrors, m.Messages, m.RespondDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording engine events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			m.StateEnter.WithLabelValues(e.Bot, string(e.To)).Inc()
		},
		OnFinish: func(_ context.Context, e *domain.FinishEvent) {
			m.Finish.WithLabelValues(e.Bot, string(e.Reason)).Inc()
		},
		OnError: func(_ context.Context, e *domain.ErrorEvent) {
			m.TransitionErrors.WithLabelValues(e.Bot).Inc()
		},
	}
}

// Observe wraps next so that every message is counted and timed.
func (m *Metrics) Observe(next ports.Responder) ports.Responder {
	return &observed{next: next, m: m}
}

type observed struct {
	next ports.Responder
	m    *Metrics
}

func (o *observed) Respond(ctx context.Context, sessionID, text string) (ports.Reply, error) {
	start := time.Now()
	reply, err := o.next.Respond(ctx, sessionID, text)
	o.m.RespondDuration.WithLabelValues(o.m.bot).Observe(time.Since(start).Seconds())
	if err == nil {
		o.m.Messages.WithLabelValues(o.m.bot).Inc()
	}
	return reply, err
}
