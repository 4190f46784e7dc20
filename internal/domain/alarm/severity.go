package alarm

import "strings"

// Severity is the reported or derived impact level of an alarm or cluster.
// Values outside the known set are preserved but rank below warning.
type Severity string

// Known severity values, highest impact first.
const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityWarning  Severity = "warning"
)

// Rank returns the fixed ordinal used for severity comparison:
// critical=4, major=3, minor=2, warning=1, anything else 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityMajor:
		return 3
	case SeverityMinor:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Max returns the higher-ranked of the two severities.
// On equal rank the receiver wins, which keeps first-seen order stable.
func (s Severity) Max(other Severity) Severity {
	if other.Rank() > s.Rank() {
		return other
	}

	return s
}

// NormalizeSeverity lowercases and trims the raw value so producers
// sending "CRITICAL" or " Major " map onto the known set.
func NormalizeSeverity(raw string) Severity {
	return Severity(strings.ToLower(strings.TrimSpace(raw)))
}
