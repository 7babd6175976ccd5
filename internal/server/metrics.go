package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	questionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatbox_questions_total",
		Help: "Questions handled, by outcome.",
	}, []string{"outcome"})

	answerSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatbox_answer_seconds",
		Help:    "End-to-end latency of answering a question.",
		Buckets: prometheus.DefBuckets,
	})

	indexVectors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatbox_index_vectors",
		Help: "Vectors in the currently loaded index.",
	})

	reloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatbox_index_reloads_total",
		Help: "Successful index reloads.",
	})
)
