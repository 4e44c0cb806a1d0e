package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Business metric names
const (
	MetricNameAwardsTotal     = "awards_total"
	MetricNamePointsAwarded   = "points_awarded_total"
	MetricNameXPAwarded       = "xp_awarded_total"
	MetricNameLevelUps        = "level_ups_total"
	MetricNameBadgesGranted   = "badges_granted_total"
	MetricNameQuestsCompleted = "quests_completed_total"
	MetricNameQuestsClaimed   = "quests_claimed_total"
	MetricNameChestsOpened    = "chests_opened_total"
	MetricNameCoinsSpent      = "coins_spent_total"
	MetricNameCoinsCredited   = "coins_credited_total"
	MetricNameWorkerQueueSize = "worker_queue_depth"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Business metric help text
const (
	HelpTextAwardsTotal     = "Total number of awards applied, by source type"
	HelpTextPointsAwarded   = "Total points awarded"
	HelpTextXPAwarded       = "Total xp awarded"
	HelpTextLevelUps        = "Total number of level or tier increases"
	HelpTextBadgesGranted   = "Total number of badges granted"
	HelpTextQuestsCompleted = "Total number of quest completions"
	HelpTextQuestsClaimed   = "Total number of quest rewards claimed"
	HelpTextChestsOpened    = "Total number of chests opened"
	HelpTextCoinsSpent      = "Total coins spent on chests"
	HelpTextCoinsCredited   = "Total coins credited to wallets"
	HelpTextWorkerQueueSize = "Current number of jobs waiting in the worker pool"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod     = "method"
	LabelPath       = "path"
	LabelStatus     = "status"
	LabelType       = "type"
	LabelSourceType = "source_type"
	LabelBadge      = "badge"
	LabelQuest      = "quest"
	LabelChest      = "chest"
	LabelReason     = "reason"
)

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Debug log messages
const (
	LogMsgEventPayloadDecodeFailed = "Event payload could not be decoded for metrics"
	LogMsgMetricsRecorded          = "Metrics recorded for event"
)
