package syncx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/elearn/internal/db/dbtest"
	syncx "github.com/mind-engage/elearn/internal/sync"
)

func TestEventRepo_PublishAndSince(t *testing.T) {
	ctx := context.Background()
	r := syncx.NewEventRepo(dbtest.Open(t), "site-a")

	require.NoError(t, r.Publish(ctx, "AnswerSubmitted", "u1:10", map[string]any{"question_id": 3, "is_correct": true}))
	require.NoError(t, r.Publish(ctx, "TopicCompleted", "u1:10", map[string]any{"score": 100}))
	require.NoError(t, r.Append(ctx, syncx.Event{SiteID: "site-b", Type: "TopicReset", Key: "u2:10", DataJSON: "{}"}))

	all, err := r.Since(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "AnswerSubmitted", all[0].Type)
	assert.Equal(t, "site-a", all[0].SiteID)
	assert.JSONEq(t, `{"question_id":3,"is_correct":true}`, all[0].DataJSON)
	assert.Equal(t, "site-b", all[2].SiteID)
	assert.True(t, all[0].Seq < all[1].Seq)

	tail, err := r.Since(ctx, all[0].Seq, 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "TopicCompleted", tail[0].Type)
}
