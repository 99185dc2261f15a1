package app

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/khrees2412/coldreach/pkg/models"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	a, err := NewApp(context.Background(), Options{ConfigDir: t.TempDir(), Logger: zap.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func newProfile(email string, items ...models.PortfolioItem) *models.User {
	return &models.User{
		Name:      "Mohan",
		Email:     email,
		Position:  "Business Development Executive",
		Company:   "AtliQ",
		Portfolio: items,
	}
}

func TestResolveUser(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	_, err := a.ResolveUser(ctx, "")
	assert.ErrorIs(t, err, ErrNoProfile)

	mohan := newProfile("mohan@atliq.com")
	_, err = a.SaveProfile(ctx, mohan)
	require.NoError(t, err)

	got, err := a.ResolveUser(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, mohan.ID, got.ID)

	_, err = a.SaveProfile(ctx, newProfile("priya@atliq.com"))
	require.NoError(t, err)

	_, err = a.ResolveUser(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	got, err = a.ResolveUser(ctx, "priya@atliq.com")
	require.NoError(t, err)
	assert.Equal(t, "priya@atliq.com", got.Email)

	_, err = a.ResolveUser(ctx, "nobody@atliq.com")
	assert.ErrorIs(t, err, ErrNoProfile)

	a.Config.ActiveUser = "mohan@atliq.com"
	got, err = a.ResolveUser(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, mohan.ID, got.ID)
}

func TestSaveProfileSyncsAndPrunesPortfolio(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	user := newProfile("mohan@atliq.com",
		models.PortfolioItem{Techstack: "React, Node.js", Link: "https://example.com/react"},
		models.PortfolioItem{Techstack: "Go, PostgreSQL", Link: "https://example.com/go"},
	)
	result, err := a.SaveProfile(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Zero(t, result.Pruned)

	user.Portfolio = user.Portfolio[1:]
	result, err = a.SaveProfile(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Existing)
	assert.Equal(t, 1, result.Pruned)

	entries, err := a.Portfolio.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.com/go", entries[0].Link)

	links := a.Portfolio.QueryRelevantLinks(ctx, user.ID, []string{"Go"}, 2)
	assert.Equal(t, []string{"https://example.com/go"}, links)
}

func TestSaveProfileRejectsInvalidProfile(t *testing.T) {
	a := newTestApp(t)

	_, err := a.SaveProfile(context.Background(), &models.User{Name: "Mohan", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOrchestratorNeedsProviderKey(t *testing.T) {
	a := newTestApp(t)
	a.Config.AIProvider = "gemini"
	a.Config.GeminiKey = ""

	_, err := a.Orchestrator(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini API key not configured")
}

func TestContextRoundTrip(t *testing.T) {
	a := &App{}
	ctx := SetAppInContext(context.Background(), a)
	assert.Same(t, a, GetAppFromContext(ctx))
	assert.Nil(t, GetAppFromContext(context.Background()))
}
