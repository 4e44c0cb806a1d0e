package worker

import "time"

// ============================================================================
// Defaults
// ============================================================================

const (
	DefaultWorkerCount = 4
	DefaultQueueSize   = 256
	DefaultJobTimeout  = 30 * time.Second

	// DefaultEligibilityInterval is how often quest eligibility is refreshed
	DefaultEligibilityInterval = 15 * time.Minute

	EligibilityWorkerName = "eligibility"

	// EligibilityLookback is how far back a user counts as recently active
	EligibilityLookback = 7 * 24 * time.Hour
)

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

const (
	LogMsgWorkerJobFailed     = "Worker job failed"
	LogMsgWorkerJobPanicked   = "Worker job panicked"
	LogMsgWorkerQueueFull     = "Worker queue full, job dropped"
	LogMsgPoolStopped         = "Worker pool stopped"
	LogMsgPoolShutdownTimeout = "Worker pool shutdown timed out"

	LogMsgWorkerDraining     = "Draining worker"
	LogMsgWorkerStopped      = "Worker stopped"
	LogMsgWorkerDrainTimeout = "Worker drain timed out"
)

// ============================================================================
// Log Messages - Eligibility Worker
// ============================================================================

const (
	LogMsgEligibilityScheduled     = "Quest eligibility refresh scheduled"
	LogMsgEligibilityRefreshed     = "Quest eligibility refreshed"
	LogMsgEligibilityRefreshFailed = "Quest eligibility refresh failed"
	LogMsgEligibilityUserFailed    = "Quest eligibility refresh failed for user"
	LogMsgSchedulerShutdownFailed  = "Scheduler shutdown failed"
)
