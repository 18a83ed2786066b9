package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/domain-resolver/internal/model"
)

func TestOpenLog_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lookups.jsonl")
	q := model.CompanyQuery{Name: "Acme Corp", City: "Denver"}

	for i := 0; i < 2; i++ {
		lw, err := OpenLog(path)
		require.NoError(t, err)
		lw.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
		require.NoError(t, lw.Write(q, withDomain("Acme Corp", "acme.com", 95, false), 1500*time.Millisecond))
		require.NoError(t, lw.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var rec model.LookupLog
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "Acme Corp", rec.Input.Name)
	assert.Equal(t, "acme.com", rec.Result.DomainOrEmpty())
	assert.InDelta(t, 1.5, rec.DurationSeconds, 0.0001)
	assert.Equal(t, 2026, rec.Timestamp.Year())
	assert.NotEmpty(t, rec.RunID)
}

func TestLogWriter_CloseWithoutFile(t *testing.T) {
	assert.NoError(t, NewLogWriter(&strings.Builder{}).Close())
}
