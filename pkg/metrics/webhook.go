package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics records payment notification processing outcomes.
type WebhookMetrics struct {
	accepted *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_accepted",
		Help: "Payment notifications acknowledged, by claimed status.",
	}, []string{"status"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_rejected",
		Help: "Payment notifications rejected, by pipeline stage.",
	}, []string{"stage"})
	reg.MustRegister(accepted, rejected)
	return &WebhookMetrics{accepted: accepted, rejected: rejected}
}

// IncAccepted increments the acknowledged counter for the claimed status.
func (w *WebhookMetrics) IncAccepted(status string) {
	if w == nil || w.accepted == nil {
		return
	}
	w.accepted.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncRejected increments the rejection counter for the pipeline stage.
func (w *WebhookMetrics) IncRejected(stage string) {
	if w == nil || w.rejected == nil {
		return
	}
	w.rejected.WithLabelValues(normalizeLabel(stage)).Inc()
}
