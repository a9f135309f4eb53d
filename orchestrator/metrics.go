package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_turns_total",
			Help: "Customer turns processed, by the agent that received them",
		},
		[]string{"agent"},
	)
	redirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_redirects_total",
			Help: "Agent hand-offs, by source and target agent",
		},
		[]string{"from", "to"},
	)
	terminationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentdesk_terminations_total",
			Help: "Conversations closed by the termination marker",
		},
	)
	executorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_executor_failures_total",
			Help: "Executor errors degraded to the apology reply, by agent",
		},
		[]string{"agent"},
	)
)
