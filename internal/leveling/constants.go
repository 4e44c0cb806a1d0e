package leveling

// ============================================================================
// Default Curve
// ============================================================================

const (
	// BaseXP is the base XP value used in level calculations
	BaseXP = 100.0

	// LevelExponent is the exponent used in the XP formula: XP = BaseXP * (Level ^ LevelExponent)
	LevelExponent = 1.5

	// DefaultMaxLevel is the number of levels in the default curve
	DefaultMaxLevel = 50

	// MinLevel is the level every user starts at
	MinLevel = 1
)

// ============================================================================
// Error Messages
// ============================================================================

const (
	ErrMsgNegativeXP          = "xp must not be negative: %d"
	ErrMsgNegativePoints      = "points must not be negative: %d"
	ErrMsgLevelOutOfRange     = "level %d outside [%d, %d]"
	ErrMsgEmptyThresholds     = "level thresholds must not be empty"
	ErrMsgFirstThresholdZero  = "first level threshold must be 0, got %d"
	ErrMsgThresholdsNotRising = "level thresholds must be strictly increasing at level %d"
	ErrMsgTiersNotOrdered     = "tier thresholds must be ordered by rank and start at 0/0"
)
