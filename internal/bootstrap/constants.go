package bootstrap

const (
	DirPermission     = 0755
	LogFilePermission = 0666

	// LogFileTimestampFormat names session logs so they sort by start time
	LogFileTimestampFormat = "2006-01-02_15-04-05"
	LogFileNamePattern     = "session_%s.log"
	LogFileExtension       = ".log"

	// LogFileRetentionCount is how many older session logs survive cleanup
	LogFileRetentionCount = 9
)

// Startup
const (
	LogMsgLoggingInitialized     = "Logging initialized"
	LogMsgStartingService        = "Starting lab rewards engine"
	LogMsgConfigurationLoaded    = "Configuration loaded"
	LogMsgFailedDeleteOldLog     = "Failed to delete old log file"
	LogMsgEventSystemInitialized = "Event system initialized"
	LogMsgDeadLettersPending     = "Undelivered events found in dead-letter file"
	LogMsgDeadLettersUnreadable  = "Dead-letter file could not be fully read"
	LogMsgUsingMemoryStorage     = "Using in-memory storage, data is lost on restart"
	LogMsgUsingPostgresStorage   = "Using PostgreSQL storage"
	LogMsgDefinitionsSkipped     = "No definitions catalog configured, sync skipped"

	LogMsgMetricsCollectorRegistered = "Metrics collector registered"
	LogMsgBadgeHandlerRegistered     = "Badge evaluation handler registered"
	LogMsgQuestHandlerRegistered     = "Quest progress handler registered"
)

// Shutdown
const (
	LogMsgShuttingDownServer         = "Shutting down server..."
	LogMsgShuttingDownEventPublisher = "Shutting down event publisher..."
	LogMsgServerStopped              = "Server stopped"
	LogMsgServerForcedShutdown       = "Server forced to shutdown"
	LogMsgResilientPublisherFailed   = "Resilient publisher shutdown failed"
	LogMsgEligibilityWorkerFailed    = "Eligibility worker shutdown failed"
	LogMsgWorkerPoolFailed           = "Worker pool shutdown failed"
)

const (
	ErrMsgCreateLogsDir         = "failed to create logs directory"
	ErrMsgOpenLogFile           = "failed to open log file"
	ErrMsgCreateDeadLetterDir   = "failed to create dead-letter directory"
	ErrMsgCreatePublisher       = "failed to create resilient publisher"
	ErrMsgUnknownStorage        = "unknown storage backend %q"
	ErrMsgFailedLoadDefinitions = "failed to load definitions catalog"
	ErrMsgInvalidDefinitions    = "invalid definitions catalog"
	ErrMsgFailedSyncDefinitions = "failed to sync definitions catalog"
)
