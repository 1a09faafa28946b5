package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// MappingFileName records every harvested publication keyed by PMID, so
// repeat runs skip already-known records.
const MappingFileName = "pmid_mapping.json"

// HarvestedRecord is one entry in the PMID mapping.
type HarvestedRecord struct {
	Metadata    Publication `json:"metadata"`
	HarvestedAt time.Time   `json:"harvested_at"`
}

// HarvestResult summarizes one harvest run.
type HarvestResult struct {
	Found   int
	New     int
	Skipped int
}

// Harvester fetches recent publications and maintains the local mapping.
type Harvester struct {
	client    *Client
	outputDir string
	logger    *slog.Logger
}

// NewHarvester creates a Harvester writing under outputDir.
func NewHarvester(client *Client, outputDir string, logger *slog.Logger) *Harvester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{client: client, outputDir: outputDir, logger: logger}
}

// Harvest searches PubMed for publications in the last daysBack days and
// adds unseen ones to the mapping. Already-harvested PMIDs are skipped.
func (h *Harvester) Harvest(ctx context.Context, query string, daysBack, maxResults int) (*HarvestResult, error) {
	if query == "" {
		query = DefaultQuery
	}
	if err := os.MkdirAll(h.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	mapping, err := h.loadMapping()
	if err != nil {
		return nil, err
	}

	h.logger.Info("searching pubmed", "query", query, "days_back", daysBack)
	pmids, err := h.client.Search(ctx, query, daysBack, maxResults)
	if err != nil {
		return nil, err
	}

	result := &HarvestResult{Found: len(pmids)}

	var unseen []string
	for _, pmid := range pmids {
		if _, ok := mapping[pmid]; ok {
			result.Skipped++
			continue
		}
		unseen = append(unseen, pmid)
	}

	if len(unseen) > 0 {
		pubs, err := h.client.Summaries(ctx, unseen)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		for _, pub := range pubs {
			mapping[pub.PMID] = HarvestedRecord{Metadata: pub, HarvestedAt: now}
			result.New++
		}
		if err := h.saveMapping(mapping); err != nil {
			return nil, err
		}
	}

	h.logger.Info("harvest complete",
		"found", result.Found,
		"new", result.New,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (h *Harvester) mappingPath() string {
	return filepath.Join(h.outputDir, MappingFileName)
}

func (h *Harvester) loadMapping() (map[string]HarvestedRecord, error) {
	data, err := os.ReadFile(h.mappingPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]HarvestedRecord), nil
		}
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	var mapping map[string]HarvestedRecord
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	return mapping, nil
}

func (h *Harvester) saveMapping(mapping map[string]HarvestedRecord) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	if err := os.WriteFile(h.mappingPath(), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}
