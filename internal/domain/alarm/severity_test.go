package alarm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSeverityRank verifies the fixed ordinal order and that unknown values rank lowest.
func TestSeverityRank(t *testing.T) {
	t.Parallel()

	cases := map[Severity]int{
		SeverityCritical:     4,
		SeverityMajor:        3,
		SeverityMinor:        2,
		SeverityWarning:      1,
		Severity("whatever"): 0,
		Severity(""):         0,
	}
	for severity, rank := range cases {
		require.Equal(t, rank, severity.Rank(), "severity %q", severity)
	}
}

// TestSeverityMax verifies that Max picks the higher rank and keeps the receiver on ties.
func TestSeverityMax(t *testing.T) {
	t.Parallel()

	require.Equal(t, SeverityCritical, SeverityMinor.Max(SeverityCritical))
	require.Equal(t, SeverityCritical, SeverityCritical.Max(SeverityWarning))

	// Equal rank: first-seen (receiver) wins.
	require.Equal(t, Severity("oddball"), Severity("oddball").Max("other-odd"))
}

// TestNormalizeSeverity verifies case and whitespace normalization.
func TestNormalizeSeverity(t *testing.T) {
	t.Parallel()

	require.Equal(t, SeverityCritical, NormalizeSeverity("CRITICAL"))
	require.Equal(t, SeverityMajor, NormalizeSeverity(" Major "))
	require.Equal(t, Severity("unheard-of"), NormalizeSeverity("unheard-of"))
}

// TestRecordEffectiveSeverity verifies the minor default for unset severities.
func TestRecordEffectiveSeverity(t *testing.T) {
	t.Parallel()

	r := &Record{EntityID: "cell-1", TenantID: "t-1"}
	require.Equal(t, SeverityMinor, r.EffectiveSeverity())

	r.Severity = SeverityWarning
	require.Equal(t, SeverityWarning, r.EffectiveSeverity())
}

// TestRecordClone verifies that Clone returns a copy and handles nil safely.
func TestRecordClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*Record)(nil).Clone())

	r := &Record{
		EntityID:  "cell-1",
		AlarmType: "LINK_DOWN",
		TenantID:  "t-1",
	}

	c := r.Clone()

	require.Equal(t, r, c)
	require.NotSame(t, r, c)
}
