// Package history records completed exchanges in Postgres.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whwh2000/translator-robot/internal/models"
)

const defaultListLimit = 50

type Recorder interface {
	Record(ctx context.Context, e *models.Exchange) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.Exchange, error)
}

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func (s *Service) Record(ctx context.Context, e *models.Exchange) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO exchanges (id, session_id, owner, language, mode, input, transcribed, translation, reply,
		                        provider, model, input_tokens, output_tokens, cost_usd, latency_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		e.ID, e.SessionID, e.Owner, e.Language, e.Mode, e.Input, e.Transcribed, e.Translation, e.Reply,
		e.Provider, e.Model, e.InputTokens, e.OutputTokens, e.CostUSD, e.LatencyMs, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

// ListBySession returns the newest exchanges first.
func (s *Service) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.Exchange, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, owner, language, mode, input, transcribed, translation, reply,
		        provider, model, input_tokens, output_tokens, cost_usd, latency_ms, created_at
		 FROM exchanges WHERE session_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var out []models.Exchange
	for rows.Next() {
		var e models.Exchange
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Owner, &e.Language, &e.Mode, &e.Input, &e.Transcribed,
			&e.Translation, &e.Reply, &e.Provider, &e.Model, &e.InputTokens, &e.OutputTokens,
			&e.CostUSD, &e.LatencyMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return out, nil
}

// Nop is the Recorder used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, *models.Exchange) error { return nil }

func (Nop) ListBySession(context.Context, uuid.UUID, int) ([]models.Exchange, error) {
	return nil, nil
}
