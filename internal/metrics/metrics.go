package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func counter(name, help string) prometheus.Counter {
	return promauto.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
}

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
}

func gauge(name, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

// Transport
var (
	HTTPRequestsTotal = counterVec(MetricNameHTTPRequestsTotal, HelpTextHTTPRequestsTotal,
		LabelMethod, LabelPath, LabelStatus)

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricNameHTTPRequestDuration,
		Help:    HelpTextHTTPRequestDuration,
		Buckets: HTTPLatencyBuckets,
	}, []string{LabelMethod, LabelPath})

	HTTPRequestsInFlight = gauge(MetricNameHTTPRequestsInFlight, HelpTextHTTPRequestsInFlight)

	EventsPublished    = counterVec(MetricNameEventsPublished, HelpTextEventsPublished, LabelType)
	EventHandlerErrors = counterVec(MetricNameEventHandlerErrors, HelpTextEventHandlerErrors, LabelType)

	WorkerQueueDepth = gauge(MetricNameWorkerQueueSize, HelpTextWorkerQueueSize)
)

// Progression, recorded from domain events by EventMetricsCollector
var (
	AwardsTotal     = counterVec(MetricNameAwardsTotal, HelpTextAwardsTotal, LabelSourceType)
	PointsAwarded   = counter(MetricNamePointsAwarded, HelpTextPointsAwarded)
	XPAwarded       = counter(MetricNameXPAwarded, HelpTextXPAwarded)
	LevelUps        = counter(MetricNameLevelUps, HelpTextLevelUps)
	BadgesGranted   = counterVec(MetricNameBadgesGranted, HelpTextBadgesGranted, LabelBadge)
	QuestsCompleted = counterVec(MetricNameQuestsCompleted, HelpTextQuestsCompleted, LabelQuest)
	QuestsClaimed   = counter(MetricNameQuestsClaimed, HelpTextQuestsClaimed)
)

// Economy
var (
	ChestsOpened = counterVec(MetricNameChestsOpened, HelpTextChestsOpened, LabelChest)
	CoinsSpent   = counter(MetricNameCoinsSpent, HelpTextCoinsSpent)

	// CoinsCredited is recorded by the wallet service; credits publish no event
	CoinsCredited = counterVec(MetricNameCoinsCredited, HelpTextCoinsCredited, LabelReason)
)
