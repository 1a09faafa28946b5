package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"

	"github.com/specializedmd/lecture-pipeline/internal/embedding"
	"github.com/specializedmd/lecture-pipeline/internal/library"
	"github.com/specializedmd/lecture-pipeline/internal/ragindex"
	"github.com/specializedmd/lecture-pipeline/internal/vectorstore"
)

// makeSearchLecturesHandler creates the search_lectures tool handler.
// The query is embedded and matched against published QA pair and pearl
// records, filtered by minimum score.
func makeSearchLecturesHandler(store *vectorstore.Store, embedder *embedding.Embedder) func(
	context.Context, *mcp.CallToolRequest, SearchLecturesInput,
) (*mcp.CallToolResult, SearchLecturesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchLecturesInput) (
		*mcp.CallToolResult, SearchLecturesOutput, error,
	) {
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 5
		}
		minScore := input.MinScore
		if minScore <= 0 {
			minScore = 0.4
		}

		embeddings, err := embedder.GenerateEmbeddings(ctx, []string{input.Query})
		if err != nil {
			return nil, SearchLecturesOutput{}, fmt.Errorf("embed query: %w", err)
		}

		records, err := store.Search(ctx, embeddings[0], maxResults, input.LectureID)
		if err != nil {
			return nil, SearchLecturesOutput{}, fmt.Errorf("search failed: %w", err)
		}

		results := make([]LectureHit, 0, len(records))
		for _, r := range records {
			if r.Score < minScore {
				continue
			}
			concepts := r.Concepts
			if concepts == nil {
				concepts = []string{}
			}
			results = append(results, LectureHit{
				Kind:      r.Kind,
				LectureID: r.LectureID,
				Score:     r.Score,
				Start:     r.Start,
				End:       r.End,
				Question:  r.Question,
				Answer:    r.Answer,
				Pearl:     r.Pearl,
				Concepts:  concepts,
			})
		}

		if len(results) == 0 {
			return nil, SearchLecturesOutput{
				Results: []LectureHit{},
				Message: "No matching lecture content found. Try broader search terms.",
			}, nil
		}
		return nil, SearchLecturesOutput{Results: results}, nil
	}
}

// makeGetLectureAnalysisHandler creates the get_lecture_analysis tool
// handler, serving the lecture's enhanced analysis file.
func makeGetLectureAnalysisHandler(processedRoot string) func(
	context.Context, *mcp.CallToolRequest, GetLectureAnalysisInput,
) (*mcp.CallToolResult, GetLectureAnalysisOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetLectureAnalysisInput) (
		*mcp.CallToolResult, GetLectureAnalysisOutput, error,
	) {
		path := filepath.Join(processedRoot, input.LectureID, input.LectureID+"_enhanced.json")
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, GetLectureAnalysisOutput{
					LectureID: input.LectureID,
					Found:     false,
				}, nil
			}
			return nil, GetLectureAnalysisOutput{}, fmt.Errorf("read analysis: %w", err)
		}

		// Served as raw JSON rather than a typed struct so clients see the
		// file exactly as the pipeline wrote it.
		return nil, GetLectureAnalysisOutput{
			LectureID: input.LectureID,
			Analysis:  jsonRaw(data),
			Found:     true,
		}, nil
	}
}

// jsonRaw lets pre-encoded JSON pass through output marshaling untouched.
type jsonRaw []byte

func (r jsonRaw) MarshalJSON() ([]byte, error) { return r, nil }

// makeListConceptsHandler creates the list_concepts tool handler, reading
// from the consolidated index.
func makeListConceptsHandler(processedRoot string) func(
	context.Context, *mcp.CallToolRequest, ListConceptsInput,
) (*mcp.CallToolResult, ListConceptsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListConceptsInput) (
		*mcp.CallToolResult, ListConceptsOutput, error,
	) {
		index, err := ragindex.Load(processedRoot)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, ListConceptsOutput{Concepts: []ConceptEntry{}}, nil
			}
			return nil, ListConceptsOutput{}, fmt.Errorf("load index: %w", err)
		}

		entries := make([]ConceptEntry, 0, len(index.Concepts))
		for concept, occurrences := range index.Concepts {
			lectures := lo.Uniq(lo.Map(occurrences, func(o ragindex.ConceptOccurrence, _ int) string {
				return o.LectureID
			}))
			sort.Strings(lectures)
			entries = append(entries, ConceptEntry{
				Concept:     concept,
				Occurrences: len(occurrences),
				Lectures:    lectures,
			})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Concept < entries[j].Concept })

		return nil, ListConceptsOutput{Concepts: entries, Count: len(entries)}, nil
	}
}

// makeSearchGuidelinesHandler creates the search_guidelines tool handler
// over the local reference library.
func makeSearchGuidelinesHandler(store *library.Store) func(
	context.Context, *mcp.CallToolRequest, SearchGuidelinesInput,
) (*mcp.CallToolResult, SearchGuidelinesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchGuidelinesInput) (
		*mcp.CallToolResult, SearchGuidelinesOutput, error,
	) {
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 5
		}

		lib, err := store.Load()
		if err != nil {
			return nil, SearchGuidelinesOutput{}, fmt.Errorf("load library: %w", err)
		}

		hits := lib.Search(input.Query, maxResults)
		results := make([]GuidelineHit, 0, len(hits))
		for _, h := range hits {
			results = append(results, GuidelineHit{
				GuidelinePath: h.GuidelinePath,
				URL:           h.URL,
				HeaderPath:    h.HeaderPath,
				Content:       h.Content,
			})
		}

		if len(results) == 0 {
			return nil, SearchGuidelinesOutput{
				Results: []GuidelineHit{},
				Message: "No matching guideline sections found. Run `lectures library sync` if the library is empty.",
			}, nil
		}
		return nil, SearchGuidelinesOutput{Results: results}, nil
	}
}
