// Command vcardmerge runs the batch cleanup: read vCard exports tagged by
// source, optionally run the LLM data-quality pass, match and merge, then
// write the cleaned collection and persist the review queue.
//
// Usage:
//
//	vcardmerge [flags] source=export.vcf [source=export.vcf ...]
//
// Each argument pairs a source database name with a vCard file; record IDs
// are prefixed with the source so they stay unique across databases.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"vcardmerge/internal/config"
	"vcardmerge/internal/core"
	"vcardmerge/internal/core/insight"
	"vcardmerge/internal/core/match"
	"vcardmerge/internal/core/model"
	"vcardmerge/internal/llm"
	"vcardmerge/internal/store"
	"vcardmerge/internal/vcardio"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	var (
		cfgPath = flag.String("config", "config/config.toml", "path to TOML config")
		outPath = flag.String("out", "merged.vcf", "output vCard file")
		cross   = flag.Bool("cross", false, "cross-database pass: skip same-source pairs, classify exact/fuzzy/conflict")
		enrich  = flag.Bool("enrich", false, "run the LLM data-quality pass before matching")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: vcardmerge [flags] source=export.vcf [source=export.vcf ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Printf("Could not load %s: %v. Using built-in defaults", *cfgPath, err)
		cfg = config.Default()
	}

	records, err := loadSources(flag.Args())
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Loaded %d records from %d sources", len(records), flag.NArg())

	ctx := context.Background()

	if *enrich {
		records, err = runEnrichment(ctx, cfg, records)
		if err != nil {
			log.Fatal(err)
		}
	}

	pipeline := core.NewPipeline(cfg, match.DistinctRules{})
	run := pipeline.Run
	if *cross {
		run = pipeline.RunCross
	}
	result, err := run(records)
	if err != nil {
		log.Fatal(err)
	}

	if err := persist(cfg.Store.Path, result); err != nil {
		log.Fatal(err)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()

	cleaned := append(append([]model.ContactRecord{}, result.Merged...), result.Passthrough...)
	if err := vcardio.Encode(out, cleaned); err != nil {
		log.Fatalf("Failed to write %s: %v", *outPath, err)
	}

	report(result, *outPath, cfg.Store.Path)
}

// loadSources reads each source=path argument. Sources must be distinct so
// the per-source ID prefixes keep records unique.
func loadSources(args []string) ([]model.ContactRecord, error) {
	var records []model.ContactRecord
	seen := map[string]bool{}

	for _, arg := range args {
		source, path, ok := strings.Cut(arg, "=")
		if !ok || source == "" || path == "" {
			return nil, fmt.Errorf("invalid argument %q, expected source=path", arg)
		}
		if seen[source] {
			return nil, fmt.Errorf("duplicate source %q", source)
		}
		seen[source] = true

		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		recs, err := vcardio.Decode(f, source)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		log.Printf("%s: %d records", source, len(recs))
		records = append(records, recs...)
	}
	return records, nil
}

func runEnrichment(ctx context.Context, cfg *config.Config, records []model.ContactRecord) ([]model.ContactRecord, error) {
	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	enricher := insight.NewEnricher(client, cfg.LLM.MinConfidence)

	enriched, insights, err := enricher.Enrich(ctx, records, insight.Cache{})
	if err != nil {
		return nil, err
	}
	log.Printf("Insight pass: %d suggestions across %d records", len(insights), len(records))
	return enriched, nil
}

func persist(dbPath string, result *core.Result) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open review store: %w", err)
	}
	defer db.Close()

	if err := db.SaveQueue(result.Queue); err != nil {
		return fmt.Errorf("failed to persist review queue: %w", err)
	}
	if err := db.SaveDecisions(result.Decisions); err != nil {
		return fmt.Errorf("failed to persist merge decisions: %w", err)
	}
	return nil
}

func report(result *core.Result, outPath, dbPath string) {
	absorbed := 0
	for _, dec := range result.Decisions {
		if !dec.RequiresReview {
			absorbed += len(dec.SecondaryIDs)
		}
	}
	fmt.Printf("Merged groups:     %d\n", len(result.Merged))
	fmt.Printf("Records absorbed:  %d\n", absorbed)
	fmt.Printf("Queued for review: %d\n", len(result.Queue))
	fmt.Printf("Passed through:    %d\n", len(result.Passthrough))
	fmt.Printf("Output:            %s\n", outPath)
	if len(result.Queue) > 0 {
		fmt.Printf("Review queue saved to %s; run the review server to decide.\n", dbPath)
	}
}
