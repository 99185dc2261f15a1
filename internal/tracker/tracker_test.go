package tracker

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khrees2412/coldreach/internal/database"
	"github.com/khrees2412/coldreach/pkg/models"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    models.Status
		wantErr bool
	}{
		{in: "Draft", want: models.StatusDraft},
		{in: "interview", want: models.StatusInterview},
		{in: " OFFERED ", want: models.StatusOffered},
		{in: "accepted", want: models.StatusAccepted},
		{in: "pending", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsTransitionAllowed(t *testing.T) {
	assert.True(t, IsTransitionAllowed(models.StatusDraft, models.StatusApplied))
	assert.True(t, IsTransitionAllowed(models.StatusOffered, models.StatusAccepted))
	assert.True(t, IsTransitionAllowed(models.StatusInterview, models.StatusRejected))
	assert.False(t, IsTransitionAllowed(models.StatusDraft, models.StatusOffered))
	assert.False(t, IsTransitionAllowed(models.StatusRejected, models.StatusApplied))
	assert.False(t, IsTransitionAllowed(models.StatusAccepted, models.StatusRejected))

	assert.True(t, IsTerminal(models.StatusAccepted))
	assert.True(t, IsTerminal(models.StatusRejected))
	assert.False(t, IsTerminal(models.StatusDraft))

	assert.Equal(t, []models.Status{models.StatusInterview, models.StatusRejected}, NextStatuses(models.StatusApplied))
	assert.Empty(t, NextStatuses(models.StatusAccepted))
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()

	db, err := database.OpenFile(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	user := &models.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, database.NewUserRepository(db).CreateUser(context.Background(), user))

	return NewService(database.NewDraftRepository(db), nil), user.ID
}

func TestRecordAndMove(t *testing.T) {
	ctx := context.Background()
	svc, userID := newTestService(t)

	draft, err := svc.Record(ctx, userID, "https://jobs.example.com", models.JobPosting{Role: "SRE"}, "Subject: hi")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, draft.Status)

	_, err = svc.Move(ctx, userID, draft.ID, models.StatusOffered, "")
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.StatusDraft, transitionErr.From)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	moved, err := svc.Move(ctx, userID, draft.ID, models.StatusApplied, "sent on monday")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, moved.Status)

	moved, err = svc.Move(ctx, userID, draft.ID, models.StatusApplied, "")
	require.NoError(t, err)
	assert.Equal(t, "sent on monday", moved.Notes)

	_, err = svc.Move(ctx, userID, draft.ID, models.StatusRejected, "no reply")
	require.NoError(t, err)

	_, err = svc.Move(ctx, userID, draft.ID, models.StatusInterview, "")
	require.ErrorAs(t, err, &transitionErr)
	assert.Contains(t, err.Error(), "final status")

	stored, err := svc.Get(ctx, userID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, stored.Status)
	assert.Equal(t, "no reply", stored.Notes)
}

func TestMoveUnknownDraft(t *testing.T) {
	svc, userID := newTestService(t)
	_, err := svc.Move(context.Background(), userID, 42, models.StatusApplied, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), userID, 42), ErrNotFound)
}

func TestListAndStats(t *testing.T) {
	ctx := context.Background()
	svc, userID := newTestService(t)

	var ids []int64
	for _, role := range []string{"A", "B", "C", "D"} {
		d, err := svc.Record(ctx, userID, "https://jobs.example.com", models.JobPosting{Role: role}, "email")
		require.NoError(t, err)
		ids = append(ids, d.ID)
	}

	_, err := svc.Move(ctx, userID, ids[1], models.StatusApplied, "")
	require.NoError(t, err)
	_, err = svc.Move(ctx, userID, ids[2], models.StatusApplied, "")
	require.NoError(t, err)
	_, err = svc.Move(ctx, userID, ids[2], models.StatusInterview, "")
	require.NoError(t, err)

	all, err := svc.List(ctx, userID, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "A", all[0].Job.Role)
	assert.Equal(t, "D", all[3].Job.Role)

	drafts, err := svc.List(ctx, userID, models.StatusDraft)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	stats, err := svc.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Sent)
	assert.InDelta(t, 50.0, stats.ResponseRate, 0.001)
	assert.Zero(t, stats.OfferRate)

	require.NoError(t, svc.Delete(ctx, userID, ids[0]))
	all, err = svc.List(ctx, userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
