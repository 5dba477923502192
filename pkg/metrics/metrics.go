package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var PaymentRequestTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "payment_request_transitions_total",
		Help:      "Payment request lifecycle operations by action and result.",
	},
	[]string{"action", "result"},
)

var NotificationsPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "realtime_notifications_total",
		Help:      "Notification feed events by outcome, from NOTIFY to stream delivery.",
	},
	[]string{"outcome"},
)
