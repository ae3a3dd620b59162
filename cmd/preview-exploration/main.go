package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/KirkDiggler/trpg-session-engine/internal/app"
	"github.com/KirkDiggler/trpg-session-engine/internal/config"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/exploration"
)

func main() {
	campaignID := flag.String("campaign", "", "campaign ID")
	milestoneID := flag.String("milestone", "", "milestone ID, all milestones when empty")
	flag.Parse()

	if *campaignID == "" {
		fmt.Println("Usage: preview-exploration -campaign <campaign-id> [-milestone <milestone-id>]")
		os.Exit(1)
	}

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

	campaign, err := stores.Campaigns.Load(ctx, *campaignID)
	if err != nil {
		log.Fatalf("Failed to load campaign: %v", err)
	}

	tracker := exploration.NewTracker(cfg.Rules.TrackerOptions())
	for _, m := range campaign.Milestones {
		if *milestoneID != "" && m.ID != *milestoneID {
			continue
		}

		preview := tracker.PreviewMilestone(campaign, m)
		fmt.Printf("%s (%s): %d actions, %d minutes, ~%d days\n",
			m.Title, m.ID, preview.TotalActions, preview.TotalMinutes, preview.EstimatedDays)
		for _, a := range preview.Actions {
			fmt.Printf("  - %-30s %4d min  [%s]\n", a.Action.Title, a.Minutes, a.Source.ID)
		}
		for _, src := range preview.Unresolved {
			fmt.Printf("  ! unresolved %s %s\n", src.Type, src.ID)
		}
	}
}
