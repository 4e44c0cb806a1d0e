package catalog

// Error messages
const (
	ErrMsgReadFileFailed = "failed to read catalog file: %w"
	ErrMsgParseFailed    = "failed to parse catalog: %w"
	ErrMsgConfigNil      = "catalog is nil"
	ErrMsgDuplicate      = "duplicate %s %q"
)

// Log messages
const (
	LogMsgSyncFinished = "Catalog sync finished"
	LogMsgSyncStarted  = "Syncing definitions catalog"
	LogMsgSynced       = "Definitions catalog synced"
	LogMsgUnchanged    = "Definitions catalog unchanged, nothing written"
)
