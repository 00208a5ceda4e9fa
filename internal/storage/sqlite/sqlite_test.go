package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haeyeon/festabot/pkg/vec"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func insertEvent(t *testing.T, db *sql.DB, id int64, title, start, end string, embedding []float32) {
	t.Helper()
	var blob []byte
	if embedding != nil {
		var err error
		blob, err = vec.Serialize(embedding)
		require.NoError(t, err)
	}
	_, err := db.Exec(
		`INSERT INTO seoul_events (id, title, place, start_date, end_date, embedding) VALUES (?, ?, ?, ?, ?, ?)`,
		id, title, "장소 "+title, start, end, blob)
	require.NoError(t, err)
}
