package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/config"
	"docchat/internal/models"
)

func testConfig(t *testing.T, driver string) *config.DatabaseConfig {
	dsn := os.Getenv("DOCCHAT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DOCCHAT_TEST_POSTGRES_DSN not set")
	}
	return &config.DatabaseConfig{
		Driver: driver,
		DSN:    dsn,
		Table:  fmt.Sprintf("docchat_test_%d", time.Now().UnixNano()),
	}
}

func TestPersister_RoundTrip(t *testing.T) {
	for _, driver := range []string{config.DriverPgdriver, config.DriverPQ} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			p, err := NewPersister(ctx, testConfig(t, driver))
			require.NoError(t, err)
			defer func() {
				assert.NoError(t, p.DropDocuments(ctx))
				p.Close()
			}()

			loaded, err := p.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, loaded)

			records := []models.Record{
				{ID: 0, Text: "first", Metadata: models.Metadata{Page: 1, Source: "a.pdf"}, Embedding: []float32{0.5, -1}},
				{ID: 2, Text: "second", Metadata: models.Metadata{Page: 2, Source: "a.pdf"}, Embedding: []float32{1, 0.25}},
			}
			require.NoError(t, p.Save(ctx, records[:1]))
			require.NoError(t, p.Save(ctx, records))

			loaded, err = p.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, records, loaded)
		})
	}
}

func TestConnectDB_UnknownDriver(t *testing.T) {
	_, err := ConnectDB(&config.DatabaseConfig{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}
