package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/osse101/LabRewards_Go/internal/metrics"
)

// AdminMetricsResponse is a JSON digest of the Prometheus registry for dashboards
type AdminMetricsResponse struct {
	HTTP    HTTPMetrics    `json:"http"`
	Events  EventMetrics   `json:"events"`
	Economy EconomyMetrics `json:"economy"`
}

type HTTPMetrics struct {
	RequestsTotalByStatus map[string]float64 `json:"requests_total_by_status"`
	AvgLatencyMs          float64            `json:"avg_latency_ms"`
	P95LatencyMs          float64            `json:"p95_latency_ms"`
	InFlight              float64            `json:"in_flight"`
}

type EventMetrics struct {
	PublishedTotalByType map[string]float64 `json:"published_total_by_type"`
	HandlerErrorsByType  map[string]float64 `json:"handler_errors_by_type"`
}

type EconomyMetrics struct {
	AwardsBySource  map[string]float64 `json:"awards_by_source"`
	PointsAwarded   float64            `json:"points_awarded"`
	XPAwarded       float64            `json:"xp_awarded"`
	LevelUps        float64            `json:"level_ups"`
	BadgesGranted   map[string]float64 `json:"badges_granted"`
	QuestsCompleted map[string]float64 `json:"quests_completed"`
	QuestsClaimed   float64            `json:"quests_claimed"`
	ChestsOpened    map[string]float64 `json:"chests_opened"`
	CoinsSpent      float64            `json:"coins_spent"`
	CoinsCredited   map[string]float64 `json:"coins_credited"`
}

type AdminMetricsHandler struct {
	gatherer prometheus.Gatherer
}

// NewAdminMetricsHandler reads from the given gatherer, or the default registry when nil
func NewAdminMetricsHandler(gatherer prometheus.Gatherer) *AdminMetricsHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &AdminMetricsHandler{gatherer: gatherer}
}

// HandleGetMetrics returns JSON-formatted metrics from Prometheus
func (h *AdminMetricsHandler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	resp, err := gatherMetrics(h.gatherer)
	if err != nil {
		respondServiceError(w, r, "Gather metrics", err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func gatherMetrics(g prometheus.Gatherer) (*AdminMetricsResponse, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	resp := &AdminMetricsResponse{
		HTTP:   HTTPMetrics{RequestsTotalByStatus: make(map[string]float64)},
		Events: EventMetrics{PublishedTotalByType: make(map[string]float64), HandlerErrorsByType: make(map[string]float64)},
		Economy: EconomyMetrics{
			AwardsBySource:  make(map[string]float64),
			BadgesGranted:   make(map[string]float64),
			QuestsCompleted: make(map[string]float64),
			ChestsOpened:    make(map[string]float64),
			CoinsCredited:   make(map[string]float64),
		},
	}

	for _, mf := range families {
		switch mf.GetName() {
		case metrics.MetricNameHTTPRequestsTotal:
			sumByLabel(mf, metrics.LabelStatus, resp.HTTP.RequestsTotalByStatus)
		case metrics.MetricNameHTTPRequestDuration:
			var count uint64
			var sum float64
			for _, m := range mf.GetMetric() {
				if hist := m.GetHistogram(); hist != nil {
					count += hist.GetSampleCount()
					sum += hist.GetSampleSum()
					if p := estimateQuantile(hist, 0.95) * 1000; p > resp.HTTP.P95LatencyMs {
						resp.HTTP.P95LatencyMs = p
					}
				}
			}
			if count > 0 {
				resp.HTTP.AvgLatencyMs = sum / float64(count) * 1000
			}
		case metrics.MetricNameHTTPRequestsInFlight:
			resp.HTTP.InFlight = total(mf)
		case metrics.MetricNameEventsPublished:
			sumByLabel(mf, metrics.LabelType, resp.Events.PublishedTotalByType)
		case metrics.MetricNameEventHandlerErrors:
			sumByLabel(mf, metrics.LabelType, resp.Events.HandlerErrorsByType)
		case metrics.MetricNameAwardsTotal:
			sumByLabel(mf, metrics.LabelSourceType, resp.Economy.AwardsBySource)
		case metrics.MetricNamePointsAwarded:
			resp.Economy.PointsAwarded = total(mf)
		case metrics.MetricNameXPAwarded:
			resp.Economy.XPAwarded = total(mf)
		case metrics.MetricNameLevelUps:
			resp.Economy.LevelUps = total(mf)
		case metrics.MetricNameBadgesGranted:
			sumByLabel(mf, metrics.LabelBadge, resp.Economy.BadgesGranted)
		case metrics.MetricNameQuestsCompleted:
			sumByLabel(mf, metrics.LabelQuest, resp.Economy.QuestsCompleted)
		case metrics.MetricNameQuestsClaimed:
			resp.Economy.QuestsClaimed = total(mf)
		case metrics.MetricNameChestsOpened:
			sumByLabel(mf, metrics.LabelChest, resp.Economy.ChestsOpened)
		case metrics.MetricNameCoinsSpent:
			resp.Economy.CoinsSpent = total(mf)
		case metrics.MetricNameCoinsCredited:
			sumByLabel(mf, metrics.LabelReason, resp.Economy.CoinsCredited)
		}
	}

	return resp, nil
}

// value reads a counter or gauge sample
func value(m *dto.Metric) float64 {
	if c := m.GetCounter(); c != nil {
		return c.GetValue()
	}
	return m.GetGauge().GetValue()
}

func total(mf *dto.MetricFamily) float64 {
	var sum float64
	for _, m := range mf.GetMetric() {
		sum += value(m)
	}
	return sum
}

func sumByLabel(mf *dto.MetricFamily, label string, into map[string]float64) {
	for _, m := range mf.GetMetric() {
		if v := getLabelValue(m, label); v != "" {
			into[v] += value(m)
		}
	}
}

func getLabelValue(m *dto.Metric, labelName string) string {
	for _, label := range m.GetLabel() {
		if label.GetName() == labelName {
			return label.GetValue()
		}
	}
	return ""
}

// estimateQuantile approximates the given quantile from histogram buckets
func estimateQuantile(hist *dto.Histogram, quantile float64) float64 {
	totalCount := hist.GetSampleCount()
	if totalCount == 0 {
		return 0
	}

	target := float64(totalCount) * quantile
	buckets := hist.GetBucket()
	for _, bucket := range buckets {
		if float64(bucket.GetCumulativeCount()) >= target {
			return bucket.GetUpperBound()
		}
	}

	if len(buckets) > 0 {
		return buckets[len(buckets)-1].GetUpperBound()
	}
	return 0
}
