package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/haeyeon/festabot/internal/core"
	"github.com/haeyeon/festabot/pkg/log"
	"github.com/haeyeon/festabot/pkg/vec"
)

type ConversationsRepo struct {
	db *sql.DB
}

func NewConversationsRepo(db *sql.DB) *ConversationsRepo {
	return &ConversationsRepo{db: db}
}

// LoadOrCreate returns the most recently updated conversation for the
// user, creating one if none exists, together with the last turn
// number and the last user/assistant message payloads. Everything is
// read inside one transaction so a follow-up decision never sees a
// half-written turn pair.
func (r *ConversationsRepo) LoadOrCreate(ctx context.Context, userID string) (*core.ConversationSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var snap core.ConversationSnapshot
	convo := &snap.Conversation

	row := tx.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM conversations
		 WHERE user_id = ? ORDER BY updated_at DESC, id DESC LIMIT 1`, userID)
	err = row.Scan(&convo.ID, &convo.UserID, &convo.CreatedAt, &convo.UpdatedAt)
	switch {
	case err == sql.ErrNoRows:
		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO conversations (user_id, created_at, updated_at) VALUES (?, ?, ?)`,
			userID, now, now)
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		convo.ID, err = res.LastInsertId()
		if err != nil {
			return nil, err
		}
		convo.UserID = userID
		convo.CreatedAt = now
		convo.UpdatedAt = now

		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		log.FromCtx(ctx).Debug().Int64("conversation_id", convo.ID).Str("user_id", userID).Msg("created conversation")
		return &snap, nil
	case err != nil:
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(turn), 0) FROM messages WHERE conversation_id = ?`,
		convo.ID).Scan(&snap.LastTurn); err != nil {
		return nil, fmt.Errorf("load last turn: %w", err)
	}

	var embBlob []byte
	err = tx.QueryRowContext(ctx,
		`SELECT embedding FROM messages
		 WHERE conversation_id = ? AND role = ? ORDER BY turn DESC LIMIT 1`,
		convo.ID, core.RoleUser).Scan(&embBlob)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("load last user message: %w", err)
	}
	if snap.PrevQueryEmbedding, err = vec.Deserialize(embBlob); err != nil {
		return nil, err
	}

	var idsJSON sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT related_event_ids FROM messages
		 WHERE conversation_id = ? AND role = ? ORDER BY turn DESC LIMIT 1`,
		convo.ID, core.RoleAssistant).Scan(&idsJSON)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("load last assistant message: %w", err)
	}
	if idsJSON.Valid && idsJSON.String != "" {
		if err := json.Unmarshal([]byte(idsJSON.String), &snap.PrevEventIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal related event ids: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &snap, nil
}

// SaveTurn appends the user message at lastTurn+1 and the assistant
// message at lastTurn+2 and refreshes the conversation timestamp, all
// in one transaction. Either the full pair lands or neither does.
func (r *ConversationsRepo) SaveTurn(ctx context.Context, conversationID int64, lastTurn int, userText string, queryEmbedding []float32, reply string, relatedIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var embBlob []byte
	if len(queryEmbedding) > 0 {
		if embBlob, err = vec.Serialize(queryEmbedding); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, embedding, turn) VALUES (?, ?, ?, ?, ?)`,
		conversationID, core.RoleUser, userText, embBlob, lastTurn+1); err != nil {
		return fmt.Errorf("failed to insert user message: %w", err)
	}

	idsJSON, err := json.Marshal(relatedIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal related event ids: %w", err)
	}
	// Store "null" (nil slice) as empty string to keep the column clean
	idsStr := string(idsJSON)
	if idsStr == "null" {
		idsStr = ""
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, related_event_ids, turn) VALUES (?, ?, ?, ?, ?)`,
		conversationID, core.RoleAssistant, reply, idsStr, lastTurn+2); err != nil {
		return fmt.Errorf("failed to insert assistant message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		time.Now().UTC(), conversationID); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit turn: %w", err)
	}

	log.FromCtx(ctx).Debug().Int64("conversation_id", conversationID).Int("turn", lastTurn+2).Msg("saved turn pair")
	return nil
}
