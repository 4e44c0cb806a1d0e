package server

import (
	"log/slog"
	"sync"
	"time"
)

type ipActivity struct {
	requests   int
	failedAuth int
}

// SuspiciousActivityDetector counts requests and failed logins per IP over a
// fixed window. Counters reset together when the window rolls over.
type SuspiciousActivityDetector struct {
	mu          sync.Mutex
	byIP        map[string]*ipActivity
	windowStart time.Time
	now         func() time.Time
}

func NewSuspiciousActivityDetector() *SuspiciousActivityDetector {
	return &SuspiciousActivityDetector{
		byIP:        make(map[string]*ipActivity),
		windowStart: time.Now(),
		now:         time.Now,
	}
}

// RecordFailedAuth counts a rejected API key and alerts past the threshold
func (d *SuspiciousActivityDetector) RecordFailedAuth(ip string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a := d.activity(ip)
	a.failedAuth++
	if a.failedAuth >= FailedAuthAlertThreshold {
		slog.Warn(SecurityAlertFailedAuth, "ip", ip, "count", a.failedAuth)
	}
}

// RecordRequest counts a request and reports false once the IP is over the limit
func (d *SuspiciousActivityDetector) RecordRequest(ip string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	a := d.activity(ip)
	a.requests++
	if a.requests <= MaxRequestsPerWindow {
		return true
	}
	if a.requests%HighRateLogEvery == 0 {
		slog.Warn(SecurityAlertHighRate, "ip", ip, "count_in_window", a.requests)
	}
	return false
}

// activity returns the counters for ip in the current window. Caller holds mu.
func (d *SuspiciousActivityDetector) activity(ip string) *ipActivity {
	if now := d.now(); now.Sub(d.windowStart) > DetectorWindow {
		clear(d.byIP)
		d.windowStart = now
	}
	a, ok := d.byIP[ip]
	if !ok {
		a = &ipActivity{}
		d.byIP[ip] = a
	}
	return a
}
