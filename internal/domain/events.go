package domain

// Event type constants used across the application for event bus subscriptions
// and metrics tracking.
//
// Event types follow the pattern: <entity>.<action> (e.g., "quest.claimed")
const (
	// EventTypeProgressionAwarded is published after a new award record is committed
	EventTypeProgressionAwarded = "progression.awarded"

	// EventTypeLevelUp is published when an award moves a user to a higher level or tier
	EventTypeLevelUp = "progression.level_up"

	// EventTypeBadgeGranted is published for every newly inserted user badge
	EventTypeBadgeGranted = "badge.granted"

	// EventTypeQuestCompleted is published when a quest state reaches COMPLETED
	EventTypeQuestCompleted = "quest.completed"

	// EventTypeQuestClaimed is published after a successful claim commits
	EventTypeQuestClaimed = "quest.claimed"

	// EventTypeChestOpened is published once per opened chest batch
	EventTypeChestOpened = "chest.opened"
)
