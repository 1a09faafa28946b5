package literature

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarvester_SkipsAlreadyHarvested(t *testing.T) {
	server := eutilsServer(t)
	defer server.Close()

	outputDir := t.TempDir()
	harvester := NewHarvester(NewClient(server.URL, ""), outputDir, slog.Default())

	first, err := harvester.Harvest(context.Background(), "", 7, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Found)
	assert.Equal(t, 2, first.New)
	assert.Equal(t, 0, first.Skipped)

	// Second run sees the same PMIDs and skips them all.
	second, err := harvester.Harvest(context.Background(), "", 7, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Found)
	assert.Equal(t, 0, second.New)
	assert.Equal(t, 2, second.Skipped)

	// Mapping file holds both records with metadata.
	data, err := os.ReadFile(filepath.Join(outputDir, MappingFileName))
	require.NoError(t, err)
	var mapping map[string]HarvestedRecord
	require.NoError(t, json.Unmarshal(data, &mapping))
	require.Len(t, mapping, 2)
	assert.Equal(t, "Outcomes after stapled anastomosis", mapping["11111"].Metadata.Title)
	assert.False(t, mapping["11111"].HarvestedAt.IsZero())
}
