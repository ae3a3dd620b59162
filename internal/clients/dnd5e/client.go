package dnd5e

//go:generate mockgen -destination=mock/mock_importer.go -package=mockdnd5e . Importer

import (
	"context"
	"net/http"
	"sync"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	apiEntities "github.com/fadedpez/dnd5e-api/entities"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/uuid"
)

// Importer turns 5e bestiary entries into enemies for the live roster
type Importer interface {
	// Enemy imports the monster with the given key (e.g. "goblin") at level
	Enemy(ctx context.Context, key string, level int) (*entities.EnemyCharacter, error)
}

// MonsterSource is the part of the dnd5e API the importer reads
type MonsterSource interface {
	GetMonster(key string) (*apiEntities.Monster, error)
}

type importer struct {
	source MonsterSource
	ids    uuid.Generator

	mu    sync.Mutex
	cache map[string]*apiEntities.Monster
}

// Config holds configuration for the importer
type Config struct {
	HttpClient *http.Client

	// Source replaces the dnd5eapi.co client, mostly for tests
	Source MonsterSource

	// IDs defaults to "enemy-" prefixed uuids
	IDs uuid.Generator
}

// New creates a bestiary importer
func New(cfg *Config) (Importer, error) {
	if cfg == nil {
		return nil, dnderr.InvalidArgument("dnd5e config is required")
	}

	source := cfg.Source
	if source == nil {
		client, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
			Client: cfg.HttpClient,
		})
		if err != nil {
			return nil, dnderr.Wrap(err, "failed to create dnd5e client")
		}
		source = client
	}

	ids := cfg.IDs
	if ids == nil {
		ids = uuid.NewPrefixedGenerator("enemy-")
	}

	return &importer{
		source: source,
		ids:    ids,
		cache:  make(map[string]*apiEntities.Monster),
	}, nil
}

func (i *importer) Enemy(ctx context.Context, key string, level int) (*entities.EnemyCharacter, error) {
	if key == "" {
		return nil, dnderr.InvalidArgument("monster key is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	monster, err := i.monster(key)
	if err != nil {
		return nil, err
	}

	enemy := monsterToEnemy(monster, level)
	enemy.ID = i.ids.New()
	return enemy, nil
}

// monster fetches key once per process; bestiary entries never change
func (i *importer) monster(key string) (*apiEntities.Monster, error) {
	i.mu.Lock()
	cached, ok := i.cache[key]
	i.mu.Unlock()
	if ok {
		return cached, nil
	}

	monster, err := i.source.GetMonster(key)
	if err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeUnavailable, "failed to fetch monster "+key)
	}
	if monster == nil {
		return nil, dnderr.NotFoundf("monster not found: %s", key)
	}

	i.mu.Lock()
	i.cache[key] = monster
	i.mu.Unlock()
	return monster, nil
}
