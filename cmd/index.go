package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/chunker"
	"github.com/clauselens/clauselens/internal/ingest"
	"github.com/clauselens/clauselens/internal/progress"
	"github.com/clauselens/clauselens/internal/vectorindex"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Parse the data folder and build its vector index",
	Long: `Reads every supported document in the configured data folder, splits
them into overlapping chunks, embeds the chunks, and persists the vector
index keyed by the corpus content. Re-running over unchanged documents
reuses the cached index without contacting the embedding provider.`,
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "rebuild even if a cached index exists")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	reporter := progress.NewReporter()
	total := countIndexable(cfg.DataDir)
	if total == 0 {
		return fmt.Errorf("no supported documents found in %s", cfg.DataDir)
	}
	reporter.Start(total)

	parsed := 0
	loader := ingest.NewLoader(
		ingest.WithInclude(cfg.Include),
		ingest.WithExclude(cfg.Exclude),
		ingest.WithDocumentHook(func(name string) {
			parsed++
			reporter.Update(parsed, "Parsing "+name)
		}),
	)

	docs := loader.LoadDirectory(cfg.DataDir)
	reporter.Finish()
	if len(docs) == 0 {
		return fmt.Errorf("no readable documents found in %s", cfg.DataDir)
	}

	splitter := chunker.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	chunks := splitter.Split(docs)
	key := vectorindex.IdentityKey(docs)

	store := vectorindex.NewStore(cfg.StoreDir, embedder)
	if indexForce {
		if err := store.Delete(key); err != nil {
			return fmt.Errorf("removing cached index: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Embedding %d chunks from %d documents...\n", len(chunks), len(docs))
	idx, err := store.BuildOrLoad(ctx, chunks, key)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	fmt.Printf("Indexed %d documents into %d chunks in %s\n", len(docs), idx.Count(), time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Identity key: %s\n", idx.IdentityKey)
	fmt.Printf("  Store: %s\n", store.Path(key))
	return nil
}

// countIndexable counts files in dir with a supported extension, for
// progress reporting.
func countIndexable(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf", ".docx", ".eml", ".msg":
			n++
		}
	}
	return n
}
