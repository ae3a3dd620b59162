package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/KirkDiggler/trpg-session-engine/internal/app"
	"github.com/KirkDiggler/trpg-session-engine/internal/config"
	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: import-campaign <campaign.json>")
		os.Exit(1)
	}

	_ = godotenv.Load()
	ctx := context.Background()

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read campaign: %v", err)
	}

	var campaign entities.Campaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		log.Fatalf("Failed to parse campaign: %v", err)
	}
	if campaign.ID == "" {
		log.Fatalf("Campaign has no id")
	}
	if campaign.StartingLocationID != "" && !campaign.IsLocationRegistered(campaign.StartingLocationID) {
		log.Printf("Warning: starting location %s is not a registered base", campaign.StartingLocationID)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	stores, err := app.OpenStores(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer stores.Close()

	if err := stores.Campaigns.Save(ctx, &campaign); err != nil {
		log.Fatalf("Failed to save campaign: %v", err)
	}

	log.Printf("Imported %s (%s): %d characters, %d enemies, %d bases into %s",
		campaign.Title, campaign.ID, len(campaign.Characters), len(campaign.Enemies), len(campaign.Bases), stores.Backend)
}
