package service

// Activity kinds accepted by the engine.
const (
	KindSteps           = "steps"
	KindWorkout         = "workout"
	KindCompetitionGoal = "competition_goal"
	KindActiveMinutes   = "active_minutes"
	KindRingsClosed     = "rings_closed"
	KindCustom          = "custom"
)

// Qualification thresholds. Policy numbers, tuned product-side.
const (
	MinQualifyingSteps          = 1000
	MinQualifyingWorkoutMinutes = 10
	MinQualifyingActiveMinutes  = 15
	MinQualifyingRingsClosed    = 1
)

var knownKinds = map[string]bool{
	KindSteps:           true,
	KindWorkout:         true,
	KindCompetitionGoal: true,
	KindActiveMinutes:   true,
	KindRingsClosed:     true,
	KindCustom:          true,
}

// KnownKind reports whether kind is in the accepted activity set.
func KnownKind(kind string) bool {
	return knownKinds[kind]
}

// Qualifies decides whether an activity report counts toward the
// streak. Pure; callable on its own.
func Qualifies(kind string, value float64) bool {
	switch kind {
	case KindSteps:
		return value >= MinQualifyingSteps
	case KindWorkout:
		return value >= MinQualifyingWorkoutMinutes
	case KindCompetitionGoal:
		// Completing a competition goal always counts.
		return true
	case KindActiveMinutes:
		return value >= MinQualifyingActiveMinutes
	case KindRingsClosed:
		return value >= MinQualifyingRingsClosed
	default:
		// Custom and unrecognized kinds never qualify by default.
		return false
	}
}
