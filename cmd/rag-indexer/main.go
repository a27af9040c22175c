// Command rag-indexer performs a one-shot reconciliation of a directory
// tree into the vector store, without running the HTTP gateway. It shares
// the same extract → chunk → embed → upsert → stale-cleanup pipeline as
// the gateway's background scheduler (internal/indexmanager), driven once
// from the command line with progress output.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"privacy-llm-gateway/internal/embedding"
	"privacy-llm-gateway/internal/extractor"
	"privacy-llm-gateway/internal/indexmanager"
	"privacy-llm-gateway/internal/logger"
	"privacy-llm-gateway/internal/vectorstore"
)

func main() {
	var (
		dir            string
		qdrantURL      string
		collection     string
		embeddingURL   string
		embeddingModel string
	)

	root := &cobra.Command{
		Use:   "rag-indexer",
		Short: "Index documents into the RAG vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), dir, qdrantURL, collection, embeddingURL, embeddingModel)
		},
	}

	root.Flags().StringVarP(&dir, "dir", "d", "", "directory to recursively index (required)")
	root.Flags().StringVar(&qdrantURL, "qdrant-url", envOr("QDRANT_URL", "http://localhost:6334"), "qdrant server URL")
	root.Flags().StringVar(&collection, "collection", "documents", "qdrant collection name")
	root.Flags().StringVar(&embeddingURL, "embedding-url", envOr("EMBEDDING_URL", "http://localhost:11434"), "ollama embedding server URL")
	root.Flags().StringVar(&embeddingModel, "embedding-model", envOr("EMBEDDING_MODEL", "nomic-embed-text"), "ollama embedding model")
	root.MarkFlagRequired("dir") //nolint:errcheck // cobra surfaces this at parse time

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(ctx context.Context, dir, qdrantURL, collection, embeddingURL, embeddingModel string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("directory does not exist: %s", dir)
	}

	log := logger.New("RAG_INDEXER", "info")

	fmt.Println("Connecting to Qdrant at", qdrantURL, "...")
	store, err := vectorstore.New(ctx, qdrantURL, collection)
	if err != nil {
		return fmt.Errorf("connect to qdrant: %w", err)
	}
	defer store.Close()

	fmt.Println("Initializing embedding model", embeddingModel, "...")
	cache := embedding.NewMemoryCache()
	defer cache.Close()
	embedGen := embedding.NewGenerator(embeddingURL, embeddingModel, cache, log)

	fmt.Println("Scanning directory:", dir)
	files, err := extractor.WalkDirectory(dir)
	if err != nil {
		return fmt.Errorf("walk directory: %w", err)
	}
	fmt.Printf("Found %d supported files\n", len(files))
	if len(files) == 0 {
		fmt.Println("No supported files found. Exiting.")
		return nil
	}

	mgr := indexmanager.New(dir, embedGen, store, 0, nil, log)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(fmt.Sprintf("indexing %d file(s)", len(files))),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetTheme(progressbar.ThemeUnicode),
	)
	ticker := time.NewTicker(100 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1) //nolint:errcheck // spinner tick, not a count
			}
		}
	}()

	err = mgr.RunIndex(ctx)
	ticker.Stop()
	close(done)
	bar.Finish()
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	status := mgr.GetStatus()
	fmt.Println("\nIndexing complete!")
	fmt.Printf("  Files processed: %d\n", status.TotalFiles)
	fmt.Printf("  Files failed:    %d\n", len(status.FailedFiles))
	fmt.Printf("  Total chunks:    %d\n", status.TotalChunks)
	fmt.Printf("  Collection:      %s\n", collection)
	fmt.Printf("  Qdrant URL:      %s\n", qdrantURL)

	if len(status.FailedFiles) > 0 {
		fmt.Println("\nFailed files:")
		for _, f := range status.FailedFiles {
			fmt.Println(" ", f)
		}
	}
	return nil
}
