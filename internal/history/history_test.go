package history_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whwh2000/translator-robot/internal/config"
	"github.com/whwh2000/translator-robot/internal/database"
	"github.com/whwh2000/translator-robot/internal/history"
	"github.com/whwh2000/translator-robot/internal/models"
)

func TestServiceRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 2, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.RunMigrations(ctx, pool, database.Migrations("")))

	svc := history.NewService(pool)
	sessionID := uuid.New()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, input := range []string{"hello", "thank you"} {
		require.NoError(t, svc.Record(ctx, &models.Exchange{
			SessionID:   sessionID,
			Language:    "ko",
			Mode:        "live_translation",
			Input:       input,
			Translation: "번역",
			Reply:       "Formal: 안녕하세요",
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			InputTokens: 10 + i,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := svc.ListBySession(ctx, sessionID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "thank you", got[0].Input, "newest first")
	assert.Equal(t, 10, got[1].InputTokens)

	limited, err := svc.ListBySession(ctx, sessionID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestNop(t *testing.T) {
	t.Parallel()

	var r history.Recorder = history.Nop{}
	require.NoError(t, r.Record(context.Background(), &models.Exchange{}))
	got, err := r.ListBySession(context.Background(), uuid.New(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
