package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/haeyeon/festabot/internal/core"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, username, passwordHash string) (*core.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &core.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// FindByUsername returns nil when the user does not exist.
func (r *UsersRepo) FindByUsername(ctx context.Context, username string) (*core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// Like bookmarks an event for a user; liking twice is a no-op.
func (r *UsersRepo) Like(ctx context.Context, userID, eventID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO event_likes (user_id, event_id) VALUES (?, ?)`,
		userID, eventID); err != nil {
		return fmt.Errorf("failed to insert like: %w", err)
	}
	return nil
}

func (r *UsersRepo) Unlike(ctx context.Context, userID, eventID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM event_likes WHERE user_id = ? AND event_id = ?`,
		userID, eventID); err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

// LikedEventIDs returns the ids of all events the user bookmarked,
// most recent first.
func (r *UsersRepo) LikedEventIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id FROM event_likes WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
