package campaigns

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
)

//go:embed schema.sql
var schema string

// SQLiteRepository stores campaigns as JSON documents in a local SQLite file
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the campaign store at path. Use ":memory:" in tests.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A second connection to ":memory:" would see an empty database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// Close closes the SQLite handle
func (s *SQLiteRepository) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load retrieves a campaign by ID
func (s *SQLiteRepository) Load(ctx context.Context, id string) (*entities.Campaign, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM campaigns WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dnderr.NotFoundf("campaign not found: %s", id)
		}
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return decodeCampaign([]byte(data))
}

// Save creates or replaces a campaign
func (s *SQLiteRepository) Save(ctx context.Context, campaign *entities.Campaign) error {
	if campaign == nil {
		return dnderr.InvalidArgument("campaign cannot be nil")
	}
	if campaign.ID == "" {
		return dnderr.InvalidArgument("campaign ID cannot be empty")
	}

	stamp(campaign, s.now)
	data, err := json.Marshal(campaign)
	if err != nil {
		return fmt.Errorf("failed to serialize campaign: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, gamemaster_id, title, status, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   gamemaster_id = excluded.gamemaster_id,
		   title = excluded.title,
		   status = excluded.status,
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		campaign.ID,
		campaign.GamemasterID,
		campaign.Title,
		string(campaign.Status),
		string(data),
		campaign.CreatedAt.UnixMilli(),
		campaign.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save campaign: %w", err)
	}
	return nil
}

// List returns campaign summaries without decoding full documents
func (s *SQLiteRepository) List(ctx context.Context, gamemasterID string) ([]*entities.CampaignSummary, error) {
	query := `SELECT id, gamemaster_id, title, status, data, updated_at FROM campaigns`
	var args []any
	if gamemasterID != "" {
		query += ` WHERE gamemaster_id = ?`
		args = append(args, gamemasterID)
	}
	query += ` ORDER BY updated_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := []*entities.CampaignSummary{}
	for rows.Next() {
		var (
			summary   entities.CampaignSummary
			status    string
			data      string
			updatedAt int64
		)
		if err := rows.Scan(&summary.ID, &summary.GamemasterID, &summary.Title, &status, &data, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		summary.Status = entities.CampaignStatus(status)
		summary.UpdatedAt = time.UnixMilli(updatedAt).UTC()

		var system struct {
			GameSystem string `json:"game_system"`
		}
		if err := json.Unmarshal([]byte(data), &system); err == nil {
			summary.GameSystem = system.GameSystem
		}
		out = append(out, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}
	return out, nil
}

// Delete removes a campaign
func (s *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return dnderr.NotFoundf("campaign not found: %s", id)
	}
	return nil
}

// Archive marks a campaign archived
func (s *SQLiteRepository) Archive(ctx context.Context, id string) error {
	campaign, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	campaign.Status = entities.CampaignStatusArchived
	return s.Save(ctx, campaign)
}

var _ Repository = (*SQLiteRepository)(nil)
