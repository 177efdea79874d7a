package veterinarian

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func jsonField(t *testing.T, raw []byte, key string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return string(m[key])
}
