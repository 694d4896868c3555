package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"loyalty-service/internal/db"
	"loyalty-service/internal/store"
	"loyalty-service/internal/store/storetest"
)

// Runs against a real database only when TEST_DATABASE_URL is set.
func TestEntityBackend(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := db.ConnectDB(db.PostgresConfig{URL: url})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	n := 0
	storetest.Run(t, func(t *testing.T) store.Backend {
		n++
		table := fmt.Sprintf("entities_test_%d_%d", time.Now().UnixNano(), n)
		b := NewEntityBackend(NewDB(pool), table)
		if err := b.Migrate(context.Background()); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() {
			pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+b.table)
		})
		return b
	})
}
