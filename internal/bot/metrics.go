package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики бота исполнения ордеров
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Анализ частоты исполнений и ошибок котировок в production

// CheckDuration - длительность одного прохода проверки pending ордеров
var CheckDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "portfolio",
		Subsystem: "bot",
		Name:      "check_duration_seconds",
		Help:      "Duration of a single pending-order check pass",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	},
)

// ChecksTotal - количество проходов проверки
var ChecksTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "portfolio",
		Subsystem: "bot",
		Name:      "checks_total",
		Help:      "Total number of pending-order check passes",
	},
)

// OrdersExecuted - количество исполненных ордеров
var OrdersExecuted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "portfolio",
		Subsystem: "bot",
		Name:      "orders_executed_total",
		Help:      "Total number of executed orders",
	},
	[]string{"side"}, // buy, sell
)

// PriceLookupErrors - количество тикеров, пропущенных из-за ошибки котировки
var PriceLookupErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "portfolio",
		Subsystem: "bot",
		Name:      "price_lookup_errors_total",
		Help:      "Total number of tickers skipped due to price lookup failures",
	},
	[]string{"ticker"},
)

// PendingOrders - количество pending ордеров после последнего прохода
var PendingOrders = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "portfolio",
		Subsystem: "bot",
		Name:      "pending_orders",
		Help:      "Number of pending orders after the last check pass",
	},
)
