package campaigns

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
)

// inMemoryRepository implements Repository using in-memory storage.
// Campaigns are stored as JSON so callers never share pointers with the store.
type inMemoryRepository struct {
	mu        sync.RWMutex
	campaigns map[string][]byte
	now       func() time.Time
}

// NewInMemoryRepository creates a new in-memory campaign repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		campaigns: make(map[string][]byte),
		now:       time.Now,
	}
}

// Load retrieves a campaign by ID
func (r *inMemoryRepository) Load(ctx context.Context, id string) (*entities.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, exists := r.campaigns[id]
	if !exists {
		return nil, dnderr.NotFoundf("campaign not found: %s", id)
	}
	return decodeCampaign(data)
}

// Save creates or replaces a campaign
func (r *inMemoryRepository) Save(ctx context.Context, campaign *entities.Campaign) error {
	if campaign == nil {
		return dnderr.InvalidArgument("campaign cannot be nil")
	}
	if campaign.ID == "" {
		return dnderr.InvalidArgument("campaign ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stamp(campaign, r.now)
	data, err := json.Marshal(campaign)
	if err != nil {
		return fmt.Errorf("failed to serialize campaign: %w", err)
	}
	r.campaigns[campaign.ID] = data
	return nil
}

// List returns campaign summaries
func (r *inMemoryRepository) List(ctx context.Context, gamemasterID string) ([]*entities.CampaignSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.CampaignSummary, 0, len(r.campaigns))
	for _, data := range r.campaigns {
		campaign, err := decodeCampaign(data)
		if err != nil {
			return nil, err
		}
		if gamemasterID != "" && campaign.GamemasterID != gamemasterID {
			continue
		}
		out = append(out, campaign.Summary())
	}
	sortSummaries(out)
	return out, nil
}

// Delete removes a campaign
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.campaigns[id]; !exists {
		return dnderr.NotFoundf("campaign not found: %s", id)
	}
	delete(r.campaigns, id)
	return nil
}

// Archive marks a campaign archived
func (r *inMemoryRepository) Archive(ctx context.Context, id string) error {
	campaign, err := r.Load(ctx, id)
	if err != nil {
		return err
	}
	campaign.Status = entities.CampaignStatusArchived
	return r.Save(ctx, campaign)
}

func decodeCampaign(data []byte) (*entities.Campaign, error) {
	var campaign entities.Campaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		return nil, fmt.Errorf("failed to deserialize campaign: %w", err)
	}
	return &campaign, nil
}
