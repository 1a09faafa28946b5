// Package main provides the lecture processing CLI: transcription,
// enrichment and analysis, index building, vector publication, literature
// harvesting, and guideline library sync.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/specializedmd/lecture-pipeline/internal/analyze"
	"github.com/specializedmd/lecture-pipeline/internal/batch"
	"github.com/specializedmd/lecture-pipeline/internal/embedding"
	"github.com/specializedmd/lecture-pipeline/internal/enrich"
	"github.com/specializedmd/lecture-pipeline/internal/library"
	"github.com/specializedmd/lecture-pipeline/internal/literature"
	"github.com/specializedmd/lecture-pipeline/internal/llm"
	"github.com/specializedmd/lecture-pipeline/internal/ragindex"
	"github.com/specializedmd/lecture-pipeline/internal/settings"
	"github.com/specializedmd/lecture-pipeline/internal/terms"
	"github.com/specializedmd/lecture-pipeline/internal/transcribe"
	"github.com/specializedmd/lecture-pipeline/internal/vectorstore"
	"github.com/specializedmd/lecture-pipeline/internal/vocab"
)

var rootCmd = &cobra.Command{
	Use:   "lectures",
	Short: "Medical lecture transcript processing pipeline",
	Long:  "CLI for transcribing, enriching, analyzing, and indexing medical lecture recordings",
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// credential resolves a key from the environment first, then the settings
// store. Missing settings stores are treated as empty.
func credential(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	store, err := settings.Open("", slog.Default())
	if err != nil {
		return ""
	}
	return store.Get(key)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

// ---- process ----

var processFlags struct {
	inputDir      string
	outputDir     string
	maxWorkers    int
	batchSize     int
	minConfidence float64
	model         string
	conceptCache  string
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Enrich and analyze every transcript in a directory",
	Long: `Processes all *_transcription.json files under --input-dir: detects
medical terms, resolves UMLS concepts, realigns timestamps, runs the four
analysis tasks per segment, and writes per-lecture output plus a run summary
under --output-dir.

Individual lecture failures are recorded in the summary and do not abort
the run. The command fails only when no transcripts are found or the output
directory cannot be created.

Environment variables:
  DEEPSEEK_API_KEY  Analysis model API key (required; or settings store)
  UMLS_API_KEY      UMLS terminology API key (optional)`,
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := slog.Default()
	start := time.Now()

	service, err := llm.NewService(llm.Config{
		APIKey: credential("DEEPSEEK_API_KEY"),
		Model:  processFlags.model,
	})
	if err != nil {
		return err
	}

	classifier := terms.NewLLMClassifier(service)
	lookup := terms.NewLookup(classifier, logger)
	detector := terms.NewDetector(lookup, logger)

	vocabClient := vocab.NewClient("", credential("UMLS_API_KEY"), logger)
	store := vocab.NewMemoryStore()
	if processFlags.conceptCache != "" {
		if err := store.LoadFrom(processFlags.conceptCache); err != nil {
			return fmt.Errorf("load concept cache: %w", err)
		}
		logger.Info("concept cache loaded", "path", processFlags.conceptCache, "terms", store.Len())
	}

	enricher := enrich.NewEnricher(detector, store, vocabClient.Search, logger)
	analyzer := analyze.NewAnalyzer(service, logger)
	processor := batch.NewProcessor(enricher, analyzer,
		processFlags.batchSize, processFlags.minConfidence, processFlags.model, logger)

	summary, err := processor.ProcessDirectory(ctx,
		processFlags.inputDir, processFlags.outputDir, processFlags.maxWorkers)
	if err != nil {
		return err
	}

	if processFlags.conceptCache != "" {
		if err := store.Export(processFlags.conceptCache); err != nil {
			logger.Warn("could not export concept cache", "path", processFlags.conceptCache, "error", err)
		}
	}

	fmt.Println()
	fmt.Println("Processing complete!")
	fmt.Printf("  Lectures:  %d/%d\n", summary.SuccessfulProcesses, summary.TotalLectures)
	fmt.Printf("  QA pairs:  %d\n", summary.TotalQAPairs)
	fmt.Printf("  Concepts:  %d\n", summary.TotalUniqueConcepts)
	fmt.Printf("  Duration:  %s\n", time.Since(start).Round(time.Second))

	if summary.FailedProcesses > 0 {
		fmt.Println()
		fmt.Println("Failed lectures:")
		for _, ls := range summary.LectureSummaries {
			if ls.Error != "" {
				fmt.Printf("  %s: %s\n", ls.LectureID, ls.Error)
			}
		}
	}
	return nil
}

// ---- index ----

var indexFlags struct {
	outputDir string
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the consolidated retrieval index from processed lectures",
	Long: `Consolidates every analyzed lecture under --output-dir into one
cross-lecture index (QA pairs, concepts, clinical pearls, references) and
writes it as consolidated_rag_index.json at the root. Rebuilds from scratch;
repeated runs over unchanged input produce identical output.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	builder := ragindex.NewBuilder(slog.Default())
	index, err := builder.Build(indexFlags.outputDir)
	if err != nil {
		return err
	}
	if err := builder.Write(indexFlags.outputDir, index); err != nil {
		return err
	}

	fmt.Println("Index built!")
	fmt.Printf("  QA pairs:   %d\n", len(index.QAPairs))
	fmt.Printf("  Concepts:   %d\n", len(index.Concepts))
	fmt.Printf("  Pearls:     %d\n", len(index.ClinicalPearls))
	fmt.Printf("  References: %d\n", len(index.References))
	return nil
}

// ---- publish ----

var publishFlags struct {
	outputDir string
	replace   bool
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Embed the consolidated index and upsert it into Qdrant",
	Long: `Reads consolidated_rag_index.json under --output-dir, embeds every QA
pair and clinical pearl, and upserts them into the lecture_qa collection.

Environment variables:
  QDRANT_HOST     Qdrant hostname (default: localhost)
  QDRANT_PORT     Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY  Embedding API key (required; or settings store)`,
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	index, err := ragindex.Load(publishFlags.outputDir)
	if err != nil {
		return fmt.Errorf("load index (run `lectures index` first): %w", err)
	}

	qdrantHost := getEnv("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)

	fmt.Printf("Connecting to Qdrant at %s:%d...\n", qdrantHost, qdrantPort)
	store, err := vectorstore.NewStore(qdrantHost, qdrantPort)
	if err != nil {
		return err
	}
	defer store.Close()

	embeddingClient, err := embedding.NewClient(credential("OPENAI_API_KEY"))
	if err != nil {
		return err
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0)

	publisher := vectorstore.NewPublisher(store, embedder, slog.Default())
	count, err := publisher.PublishIndex(ctx, index, publishFlags.replace)
	if err != nil {
		return err
	}

	fmt.Println("Publish complete!")
	fmt.Printf("  Records: %d\n", count)
	return nil
}

// ---- transcribe ----

var transcribeFlags struct {
	inputDir  string
	outputDir string
	language  string
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Transcribe lecture audio files to timestamped transcripts",
	Long: `Transcribes every supported audio file under --input-dir and writes
{stem}_transcription.json files consumable by ` + "`lectures process`" + `.

Environment variables:
  GROQ_API_KEY  Transcription API key (required; or settings store)`,
	RunE: runTranscribe,
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	service, err := transcribe.NewService(credential("GROQ_API_KEY"), "", slog.Default())
	if err != nil {
		return err
	}

	result, err := service.TranscribeDirectory(ctx,
		transcribeFlags.inputDir, transcribeFlags.outputDir, transcribeFlags.language)
	if err != nil {
		return err
	}

	fmt.Println("Transcription complete!")
	fmt.Printf("  Transcribed: %d\n", len(result.Transcribed))
	if len(result.Failed) > 0 {
		fmt.Println("Failed files:")
		for name, msg := range result.Failed {
			fmt.Printf("  %s: %s\n", name, msg)
		}
	}
	return nil
}

// ---- harvest ----

var harvestFlags struct {
	outputDir  string
	daysBack   int
	maxResults int
	query      string
}

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest recent publication metadata from PubMed",
	Long: `Searches PubMed for recent publications and records their metadata in
pmid_mapping.json under --output-dir. Already-harvested PMIDs are skipped.

Environment variables:
  PUBMED_API_KEY  NCBI API key for a higher rate limit (optional)`,
	RunE: runHarvest,
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client := literature.NewClient("", credential("PUBMED_API_KEY"))
	harvester := literature.NewHarvester(client, harvestFlags.outputDir, slog.Default())

	result, err := harvester.Harvest(ctx, harvestFlags.query, harvestFlags.daysBack, harvestFlags.maxResults)
	if err != nil {
		return err
	}

	fmt.Println("Harvest complete!")
	fmt.Printf("  Found:   %d\n", result.Found)
	fmt.Printf("  New:     %d\n", result.New)
	fmt.Printf("  Skipped: %d\n", result.Skipped)
	return nil
}

// ---- library ----

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the local clinical guideline library",
}

var librarySyncFlags struct {
	owner    string
	repo     string
	basePath string
	file     string
}

var librarySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync guideline documents from GitHub into the local library",
	Long: `Fetches markdown guideline documents from a GitHub repository, chunks
them at header boundaries, and updates the local library file. Documents
whose content is unchanged are skipped.

Environment variables:
  GITHUB_TOKEN  GitHub token for higher rate limits (optional; or settings store)`,
	RunE: runLibrarySync,
}

func runLibrarySync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := library.NewClient(credential("GITHUB_TOKEN"))
	if err != nil {
		return fmt.Errorf("create GitHub client: %w", err)
	}

	fetcher := library.NewFetcher(client,
		librarySyncFlags.owner, librarySyncFlags.repo, librarySyncFlags.basePath)
	store := library.NewStore(librarySyncFlags.file)
	syncer := library.NewSyncer(fetcher, store, slog.Default())

	result, err := syncer.Sync(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Library sync complete!")
	fmt.Printf("  Documents: %d\n", result.TotalDocs)
	fmt.Printf("  Synced:    %d\n", result.Synced)
	fmt.Printf("  Skipped:   %d\n", result.Skipped)
	if len(result.Failed) > 0 {
		fmt.Println("Failed documents:")
		for _, f := range result.Failed {
			fmt.Printf("  %s: %s\n", f.Path, f.Error)
		}
	}
	return nil
}

// ---- settings ----

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage stored API credentials",
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Store a credential in the settings file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settings.Open("", slog.Default())
		if err != nil {
			return err
		}
		if err := store.Set(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s saved\n", args[0])
		return nil
	},
}

var settingsDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Remove a credential from the settings file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settings.Open("", slog.Default())
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("%s removed\n", args[0])
		return nil
	},
}

var settingsBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List settings backups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settings.Open("", slog.Default())
		if err != nil {
			return err
		}
		backups, err := store.Backups()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Println("No backups found.")
			return nil
		}
		for _, b := range backups {
			fmt.Printf("  %s\n", b)
		}
		return nil
	},
}

var settingsRestoreCmd = &cobra.Command{
	Use:   "restore [BACKUP]",
	Short: "Restore settings from a backup file (newest when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settings.Open("", slog.Default())
		if err != nil {
			return err
		}

		var backup string
		if len(args) == 1 {
			backup = args[0]
		} else {
			backups, err := store.Backups()
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				return fmt.Errorf("no backups to restore from")
			}
			backup = backups[0]
		}

		if err := store.Restore(backup); err != nil {
			return err
		}
		fmt.Printf("Restored from %s\n", backup)
		return nil
	},
}

var settingsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials are configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settings.Open("", slog.Default())
		if err != nil {
			return err
		}
		status := store.Status()
		keys := make([]string, 0, len(status))
		for key := range status {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			mark := "missing"
			if status[key] {
				mark = "set"
			}
			fmt.Printf("  %-22s %-7s  %s\n", key, mark, settings.RequiredKeys[key])
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processFlags.inputDir, "input-dir", "", "Directory containing *_transcription.json files")
	processCmd.Flags().StringVar(&processFlags.outputDir, "output-dir", "", "Directory for processed output")
	processCmd.Flags().IntVar(&processFlags.maxWorkers, "max-workers", batch.DefaultMaxWorkers, "Concurrent lecture workers")
	processCmd.Flags().IntVar(&processFlags.batchSize, "batch-size", enrich.DefaultBatchSize, "Segment enrichment batch size")
	processCmd.Flags().Float64Var(&processFlags.minConfidence, "min-confidence", analyze.DefaultMinConfidence, "Minimum QA pair confidence")
	processCmd.Flags().StringVar(&processFlags.model, "model", llm.DefaultModel, "Analysis model name")
	processCmd.Flags().StringVar(&processFlags.conceptCache, "concept-cache", "", "Concept cache checkpoint file, loaded before the run and exported after")
	processCmd.MarkFlagRequired("input-dir")
	processCmd.MarkFlagRequired("output-dir")

	indexCmd.Flags().StringVar(&indexFlags.outputDir, "output-dir", "", "Processed output directory to consolidate")
	indexCmd.MarkFlagRequired("output-dir")

	publishCmd.Flags().StringVar(&publishFlags.outputDir, "output-dir", "", "Processed output directory holding the index")
	publishCmd.Flags().BoolVar(&publishFlags.replace, "replace", false, "Clear the collection before publishing")
	publishCmd.MarkFlagRequired("output-dir")

	transcribeCmd.Flags().StringVar(&transcribeFlags.inputDir, "input-dir", "", "Directory containing audio files")
	transcribeCmd.Flags().StringVar(&transcribeFlags.outputDir, "output-dir", "", "Directory for transcript output (default: <input-dir>/transcriptions)")
	transcribeCmd.Flags().StringVar(&transcribeFlags.language, "language", transcribe.DefaultLanguage, "ISO-639-1 language code")
	transcribeCmd.MarkFlagRequired("input-dir")

	harvestCmd.Flags().StringVar(&harvestFlags.outputDir, "output-dir", "data/external", "Directory for the PMID mapping")
	harvestCmd.Flags().IntVar(&harvestFlags.daysBack, "days-back", 7, "Publication date window in days")
	harvestCmd.Flags().IntVar(&harvestFlags.maxResults, "max-results", 50, "Maximum publications to fetch")
	harvestCmd.Flags().StringVar(&harvestFlags.query, "query", "", "PubMed query (default: colorectal surgery RCTs and systematic reviews)")

	librarySyncCmd.Flags().StringVar(&librarySyncFlags.owner, "owner", library.DefaultOwner, "GitHub repository owner")
	librarySyncCmd.Flags().StringVar(&librarySyncFlags.repo, "repo", library.DefaultRepo, "GitHub repository name")
	librarySyncCmd.Flags().StringVar(&librarySyncFlags.basePath, "base-path", library.DefaultBasePath, "Path to the guidelines directory in the repository")
	librarySyncCmd.Flags().StringVar(&librarySyncFlags.file, "file", library.FileName, "Local library file path")
	libraryCmd.AddCommand(librarySyncCmd)

	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsDeleteCmd)
	settingsCmd.AddCommand(settingsBackupsCmd)
	settingsCmd.AddCommand(settingsRestoreCmd)
	settingsCmd.AddCommand(settingsStatusCmd)

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(harvestCmd)
	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(settingsCmd)
}
