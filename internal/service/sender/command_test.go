package sender

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDecodeRecords verifies single-record, array and error inputs.
func TestDecodeRecords(t *testing.T) {
	t.Parallel()

	records, err := DecodeRecords([]byte(`{"entity_id":"cell-1","tenant_id":"t-1"}`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "cell-1", records[0].EntityID)

	records, err = DecodeRecords([]byte(`[{"entity_id":"a","tenant_id":"t"},{"entity_id":"b","tenant_id":"t"}]`))
	require.NoError(t, err)
	require.Len(t, records, 2)

	_, err = DecodeRecords(nil)
	require.Error(t, err)

	_, err = DecodeRecords([]byte(`[]`))
	require.Error(t, err)

	_, err = DecodeRecords([]byte(`{broken`))
	require.Error(t, err)
}

// TestTargetURL verifies override and config-derived targets.
func TestTargetURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "http://localhost:8080/api/v1/alarms", targetURL("localhost:8080", ""))
	require.Equal(t, "https://corr.example.com/api/v1/alarms", targetURL("ignored:1", "https://corr.example.com/"))
}
