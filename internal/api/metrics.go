package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/uzhanitsoft/qarzdorlik/internal/dashboard"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qarzdorlik_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qarzdorlik_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "endpoint"})

	uploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qarzdorlik_uploads_total",
		Help: "Committed spreadsheet uploads",
	})

	failedFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qarzdorlik_failed_files_total",
		Help: "Uploaded files skipped because they could not be parsed",
	})

	agentsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qarzdorlik_agents",
		Help: "Agents in the current dashboard",
	})

	debtorsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qarzdorlik_debtors",
		Help: "Debtors across all agents in the current dashboard",
	})

	debtGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "qarzdorlik_debt_total",
		Help: "Outstanding debt across all agents by currency",
	}, []string{"currency"})
)

// MetricsHook keeps the dashboard gauges in line with the last upload.
func MetricsHook() dashboard.IngestHook {
	return func(_ context.Context, res dashboard.IngestResult) {
		uploadsTotal.Inc()
		failedFilesTotal.Add(float64(len(res.Failed)))
		agentsGauge.Set(float64(res.Entry.AgentCount))
		debtorsGauge.Set(float64(res.Entry.TotalDebtors))
		debtGauge.WithLabelValues("USD").Set(res.Entry.TotalUSD.InexactFloat64())
		debtGauge.WithLabelValues("UZS").Set(res.Entry.TotalUZS.InexactFloat64())
	}
}

// SeedMetrics sets the gauges from the state loaded at startup.
func SeedMetrics(status dashboard.DataView) {
	agentsGauge.Set(float64(len(status.Agents)))
	debtorsGauge.Set(float64(status.Totals.TotalDebtors))
	debtGauge.WithLabelValues("USD").Set(status.Totals.TotalUSD.InexactFloat64())
	debtGauge.WithLabelValues("UZS").Set(status.Totals.TotalUZS.InexactFloat64())
}
