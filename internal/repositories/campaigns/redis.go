package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
)

const (
	// Key patterns
	campaignKeyPrefix    = "campaign:"
	gamemasterCampaigns  = "gm:%s:campaigns"
	allCampaignsIndexKey = "campaigns:all"
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
	Now    func() time.Time // Optional, defaults to time.Now
}

// redisRepository implements Repository using Redis
type redisRepository struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedis creates a new Redis-backed campaign repository with default configuration
func NewRedis(client redis.UniversalClient) Repository {
	return NewRedisRepository(&RedisRepoConfig{Client: client})
}

// NewRedisRepository creates a new Redis-backed campaign repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &redisRepository{
		client: cfg.Client,
		now:    now,
	}
}

// Load retrieves a campaign by ID
func (r *redisRepository) Load(ctx context.Context, id string) (*entities.Campaign, error) {
	data, err := r.client.Get(ctx, campaignKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, dnderr.NotFoundf("campaign not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return decodeCampaign(data)
}

// Save creates or replaces a campaign and keeps the gamemaster index current
func (r *redisRepository) Save(ctx context.Context, campaign *entities.Campaign) error {
	if campaign == nil {
		return dnderr.InvalidArgument("campaign cannot be nil")
	}
	if campaign.ID == "" {
		return dnderr.InvalidArgument("campaign ID cannot be empty")
	}

	existing, err := r.Load(ctx, campaign.ID)
	if err != nil && !dnderr.IsNotFound(err) {
		return err
	}

	stamp(campaign, r.now)
	data, err := json.Marshal(campaign)
	if err != nil {
		return fmt.Errorf("failed to serialize campaign: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, campaignKeyPrefix+campaign.ID, string(data), 0)
	if existing != nil && existing.GamemasterID != campaign.GamemasterID {
		pipe.SRem(ctx, fmt.Sprintf(gamemasterCampaigns, existing.GamemasterID), campaign.ID)
	}
	pipe.SAdd(ctx, fmt.Sprintf(gamemasterCampaigns, campaign.GamemasterID), campaign.ID)
	pipe.SAdd(ctx, allCampaignsIndexKey, campaign.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}
	return nil
}

// List returns campaign summaries
func (r *redisRepository) List(ctx context.Context, gamemasterID string) ([]*entities.CampaignSummary, error) {
	indexKey := allCampaignsIndexKey
	if gamemasterID != "" {
		indexKey = fmt.Sprintf(gamemasterCampaigns, gamemasterID)
	}

	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	if len(ids) == 0 {
		return []*entities.CampaignSummary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = campaignKeyPrefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}

	out := make([]*entities.CampaignSummary, 0, len(values))
	for _, v := range values {
		// Index entries can outlive a deleted key
		s, ok := v.(string)
		if !ok {
			continue
		}
		campaign, err := decodeCampaign([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, campaign.Summary())
	}
	sortSummaries(out)
	return out, nil
}

// Delete removes a campaign and its index entries
func (r *redisRepository) Delete(ctx context.Context, id string) error {
	campaign, err := r.Load(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, campaignKeyPrefix+id)
	pipe.SRem(ctx, fmt.Sprintf(gamemasterCampaigns, campaign.GamemasterID), id)
	pipe.SRem(ctx, allCampaignsIndexKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

// Archive marks a campaign archived
func (r *redisRepository) Archive(ctx context.Context, id string) error {
	campaign, err := r.Load(ctx, id)
	if err != nil {
		return err
	}
	campaign.Status = entities.CampaignStatusArchived
	return r.Save(ctx, campaign)
}
