package config

import "time"

// Storage backends
const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"
)

// Defaults
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultEnvironment = "dev"
	DefaultServiceName = "labrewards"
	DefaultVersion     = "dev"
	DefaultDBName      = "labrewards"
	DefaultDBMaxConns  = 10

	DefaultDefinitionCacheSize = 256
	DefaultDefinitionCacheTTL  = 30 * time.Second

	DefaultEligibilityRefreshInterval = 15 * time.Minute
	DefaultEventMaxRetries            = 3
	DefaultEventRetryDelay            = 500 * time.Millisecond
	DefaultEventDeadLetterPath        = "logs/event_deadletter.jsonl"
	DefaultWorkerCount                = 4
	DefaultWorkerQueueSize            = 256
)
