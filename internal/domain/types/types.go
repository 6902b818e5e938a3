// Package types contains the closed label sets shared across the domain.
package types

// AgentState is the contextual state attached to a signal reading.
type AgentState string

// Recognized agent states.
const (
	StateCalm     AgentState = "calm"
	StateNeutral  AgentState = "neutral"
	StateAnxious  AgentState = "anxious"
	StateEngaged  AgentState = "engaged"
	StateFatigued AgentState = "fatigued"
)

// Valid reports whether s is one of the recognized agent states.
func (s AgentState) Valid() bool {
	switch s {
	case StateCalm, StateNeutral, StateAnxious, StateEngaged, StateFatigued:
		return true
	default:
		return false
	}
}

// AgentStates returns all recognized agent states.
func AgentStates() []AgentState {
	return []AgentState{StateCalm, StateNeutral, StateAnxious, StateEngaged, StateFatigued}
}

// Severity classifies a single drift evaluation.
type Severity string

// Severity tiers, ordered from calm to critical.
const (
	SeverityGreen  Severity = "green"
	SeverityYellow Severity = "yellow"
	SeverityRed    Severity = "red"
)

// Anomalous reports whether the severity marks the reading as an anomaly.
func (s Severity) Anomalous() bool {
	return s == SeverityYellow || s == SeverityRed
}

// Trend is the directional characterization of variance over a window.
type Trend string

// Trend labels.
const (
	TrendStable     Trend = "stable"
	TrendDegrading  Trend = "degrading"
	TrendRecovering Trend = "recovering"
)

// DriftStatus is the window-averaged classification tier. It is a coarser,
// independent scale from Severity.
type DriftStatus string

// Drift status tiers.
const (
	StatusStable   DriftStatus = "stable"
	StatusCaution  DriftStatus = "caution"
	StatusWarning  DriftStatus = "warning"
	StatusCritical DriftStatus = "critical"
)
