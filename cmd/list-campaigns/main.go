package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/KirkDiggler/trpg-session-engine/internal/app"
	"github.com/KirkDiggler/trpg-session-engine/internal/config"
)

func main() {
	gamemaster := flag.String("gm", "", "only list campaigns run by this Discord user ID")
	archive := flag.String("archive", "", "archive the campaign with this ID instead of listing")
	flag.Parse()

	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	stores, err := app.OpenStores(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer stores.Close()

	if *archive != "" {
		if err := stores.Campaigns.Archive(ctx, *archive); err != nil {
			log.Fatalf("Failed to archive %s: %v", *archive, err)
		}
		fmt.Printf("Archived %s\n", *archive)
		return
	}

	summaries, err := stores.Campaigns.List(ctx, *gamemaster)
	if err != nil {
		log.Fatalf("Failed to list campaigns: %v", err)
	}

	fmt.Printf("Found %d campaigns in %s:\n", len(summaries), stores.Backend)
	for _, s := range summaries {
		fmt.Printf("  %-24s %-10s %-12s %s (gm %s)\n",
			s.ID, s.Status, s.UpdatedAt.Format("2006-01-02"), s.Title, s.GamemasterID)
	}
}
