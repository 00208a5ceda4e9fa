package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate_NewUser(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationsRepo(testDB(t))

	snap, err := repo.LoadOrCreate(ctx, "alice")
	require.NoError(t, err)
	assert.NotZero(t, snap.Conversation.ID)
	assert.Equal(t, "alice", snap.Conversation.UserID)
	assert.Equal(t, 0, snap.LastTurn)
	assert.Empty(t, snap.PrevQueryEmbedding)
	assert.Empty(t, snap.PrevEventIDs)
}

func TestLoadOrCreate_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationsRepo(testDB(t))

	first, err := repo.LoadOrCreate(ctx, "alice")
	require.NoError(t, err)
	second, err := repo.LoadOrCreate(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, first.Conversation.ID, second.Conversation.ID)
	assert.Equal(t, first.LastTurn, second.LastTurn)
}

func TestSaveTurn_PairAndSnapshot(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := NewConversationsRepo(db)

	snap, err := repo.LoadOrCreate(ctx, "bob")
	require.NoError(t, err)

	emb := []float32{0.1, 0.2}
	err = repo.SaveTurn(ctx, snap.Conversation.ID, snap.LastTurn,
		"이번 주말 행사 알려줘", emb, "추천드릴게요", []int64{12, 45})
	require.NoError(t, err)

	reloaded, err := repo.LoadOrCreate(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, snap.Conversation.ID, reloaded.Conversation.ID)
	assert.Equal(t, 2, reloaded.LastTurn)
	assert.Equal(t, emb, reloaded.PrevQueryEmbedding)
	assert.Equal(t, []int64{12, 45}, reloaded.PrevEventIDs)

	var roles []string
	rows, err := db.Query(`SELECT role FROM messages WHERE conversation_id = ? ORDER BY turn`, snap.Conversation.ID)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var role string
		require.NoError(t, rows.Scan(&role))
		roles = append(roles, role)
	}
	assert.Equal(t, []string{"user", "assistant"}, roles)
}

func TestSaveTurn_MonotonicTurns(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationsRepo(testDB(t))

	snap, err := repo.LoadOrCreate(ctx, "carol")
	require.NoError(t, err)

	require.NoError(t, repo.SaveTurn(ctx, snap.Conversation.ID, 0, "q1", nil, "a1", nil))
	require.NoError(t, repo.SaveTurn(ctx, snap.Conversation.ID, 2, "q2", nil, "a2", []int64{7}))

	snap, err = repo.LoadOrCreate(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, 4, snap.LastTurn)
	assert.Equal(t, []int64{7}, snap.PrevEventIDs)

	// Reusing a turn number must be rejected by the unique constraint.
	err = repo.SaveTurn(ctx, snap.Conversation.ID, 2, "q3", nil, "a3", nil)
	assert.Error(t, err)
}

func TestSaveTurn_NoEmbedding(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationsRepo(testDB(t))

	snap, err := repo.LoadOrCreate(ctx, "dave")
	require.NoError(t, err)
	require.NoError(t, repo.SaveTurn(ctx, snap.Conversation.ID, 0, "안녕", nil, "안녕하세요", nil))

	snap, err = repo.LoadOrCreate(ctx, "dave")
	require.NoError(t, err)
	assert.Empty(t, snap.PrevQueryEmbedding)
	assert.Empty(t, snap.PrevEventIDs)
}
