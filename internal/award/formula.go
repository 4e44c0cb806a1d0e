package award

// Formula holds the point and xp rates used to price work sessions and tasks
type Formula struct {
	// Work sessions with a known duration
	XPPerMinute   int64
	PointsPerHour int64

	// Work sessions without a duration
	SessionBaseXP     int64
	SessionBasePoints int64

	// Bonus per completed task reported with a work session
	TaskBonusXP     int64
	TaskBonusPoints int64

	// Standalone task completions
	DefaultTaskPoints int64
	TaskXPPerPoint    int64
}

// DefaultFormula returns the standard award rates
func DefaultFormula() Formula {
	return Formula{
		XPPerMinute:       2,
		PointsPerHour:     10,
		SessionBaseXP:     25,
		SessionBasePoints: 2,
		TaskBonusXP:       20,
		TaskBonusPoints:   2,
		DefaultTaskPoints: 5,
		TaskXPPerPoint:    10,
	}
}

// WorkSession prices a work session. durationSeconds may be nil.
func (f Formula) WorkSession(durationSeconds *int64, completedTasks int) (points, xp int64) {
	tasks := int64(completedTasks)
	if durationSeconds == nil {
		return f.SessionBasePoints + tasks*f.TaskBonusPoints, f.SessionBaseXP + tasks*f.TaskBonusXP
	}
	d := *durationSeconds
	xp = (d/60)*f.XPPerMinute + tasks*f.TaskBonusXP
	points = d*f.PointsPerHour/3600 + tasks*f.TaskBonusPoints
	return points, xp
}

// Task prices a task completion. taskPoints may be nil.
func (f Formula) Task(taskPoints *int64) (points, xp int64) {
	points = f.DefaultTaskPoints
	if taskPoints != nil {
		points = *taskPoints
	}
	return points, points * f.TaskXPPerPoint
}
