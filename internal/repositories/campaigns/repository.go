package campaigns

//go:generate mockgen -destination=mock/mock_repository.go -package=mockcampaigns -source=repository.go

import (
	"context"
	"sort"
	"time"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
)

// Repository is the campaign persistence collaborator.
// Load returns a dnderr not found error for unknown ids.
type Repository interface {
	// Load retrieves a campaign by ID
	Load(ctx context.Context, id string) (*entities.Campaign, error)

	// Save creates or replaces a campaign and stamps its timestamps
	Save(ctx context.Context, campaign *entities.Campaign) error

	// List returns summaries, optionally only those owned by gamemasterID.
	// An empty filter lists every campaign.
	List(ctx context.Context, gamemasterID string) ([]*entities.CampaignSummary, error)

	// Delete removes a campaign
	Delete(ctx context.Context, id string) error

	// Archive marks a campaign archived
	Archive(ctx context.Context, id string) error
}

// sortSummaries orders most recently updated first
func sortSummaries(out []*entities.CampaignSummary) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
}

func stamp(campaign *entities.Campaign, now func() time.Time) {
	ts := now().UTC()
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = ts
	}
	campaign.UpdatedAt = ts
}
