// Package portfolio keeps each user's tech-stack/link pairs in the shared
// embedding index and answers skill-relevance queries scoped to one owner.
package portfolio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khrees2412/coldreach/internal/index"
	"github.com/khrees2412/coldreach/internal/logger"
	"github.com/khrees2412/coldreach/pkg/models"
)

const (
	metaOwner = "owner_id"
	metaLink  = "link"
)

// Index is the embedding index the store writes to and searches.
// It is a single namespace shared by every owner.
type Index interface {
	Insert(ctx context.Context, doc index.Document) (bool, error)
	Lookup(ctx context.Context, key string) (*index.Document, error)
	SimilaritySearch(ctx context.Context, queries []string, topK int) ([][]index.Candidate, error)
	Where(ctx context.Context, field, value string) ([]index.Document, error)
	Delete(ctx context.Context, ids ...string) (int, error)
}

// ErrNoOwner is returned when an operation is called without an owner ID.
var ErrNoOwner = errors.New("owner id is required")

// IndexError wraps a failed index operation for one owner.
type IndexError struct {
	Op      string
	OwnerID string
	Err     error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("portfolio %s for owner %s: %v", e.Op, e.OwnerID, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// SyncReport counts the outcome of a SyncPortfolio call.
type SyncReport struct {
	Inserted int
	Existing int
	Failed   int
}

// Store owns portfolio entries in the index.
type Store struct {
	index    Index
	logger   *zap.Logger
	validate *validator.Validate
	pool     int
}

type Option func(*Store)

// WithCandidatePool widens each skill's retrieval window to topK*n before
// owner filtering. Each skill still contributes at most topK entries.
func WithCandidatePool(n int) Option {
	return func(s *Store) {
		if n > 1 {
			s.pool = n
		}
	}
}

func NewStore(idx Index, log *zap.Logger, opts ...Option) *Store {
	s := &Store{
		index:    idx,
		logger:   logger.OrNop(log),
		validate: validator.New(),
		pool:     1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EntryKey identifies an (owner, techstack, link) triple in the index.
func EntryKey(ownerID, techstack, link string) string {
	sum := sha256.Sum256([]byte(ownerID + "\x00" + techstack + "\x00" + link))
	return hex.EncodeToString(sum[:])
}

func normalize(item models.PortfolioItem) models.PortfolioItem {
	return models.PortfolioItem{
		Techstack: strings.TrimSpace(item.Techstack),
		Link:      strings.TrimSpace(item.Link),
	}
}

// SyncPortfolio adds every item the index does not already hold for owner.
// It never removes entries. A failing item is logged and counted; the rest of
// the batch still runs. The index rejects duplicate keys, so concurrent syncs
// with overlapping items store each triple once.
func (s *Store) SyncPortfolio(ctx context.Context, ownerID string, items []models.PortfolioItem) (SyncReport, error) {
	var report SyncReport
	if ownerID == "" {
		return report, ErrNoOwner
	}

	log := s.logger.With(zap.String(logger.FieldOwner, ownerID))

	for i, raw := range items {
		if err := ctx.Err(); err != nil {
			report.Failed += len(items) - i
			return report, err
		}

		item := normalize(raw)
		if err := s.validate.Struct(item); err != nil {
			log.Warn("skipping invalid portfolio item",
				zap.String("techstack", item.Techstack),
				zap.String("link", item.Link),
				zap.Error(err))
			report.Failed++
			continue
		}

		inserted, err := s.syncOne(ctx, ownerID, item)
		switch {
		case err != nil:
			log.Warn("portfolio entry sync failed",
				zap.String("techstack", item.Techstack),
				zap.String("link", item.Link),
				zap.Error(err))
			report.Failed++
		case inserted:
			report.Inserted++
		default:
			report.Existing++
		}
	}

	log.Debug("portfolio synced",
		zap.Int("inserted", report.Inserted),
		zap.Int("existing", report.Existing),
		zap.Int("failed", report.Failed))

	return report, nil
}

func (s *Store) syncOne(ctx context.Context, ownerID string, item models.PortfolioItem) (bool, error) {
	key := EntryKey(ownerID, item.Techstack, item.Link)

	existing, err := s.index.Lookup(ctx, key)
	if err != nil {
		return false, &IndexError{Op: "lookup", OwnerID: ownerID, Err: err}
	}
	if existing != nil {
		return false, nil
	}

	inserted, err := s.index.Insert(ctx, index.Document{
		ID:   uuid.NewString(),
		Key:  key,
		Text: item.Techstack,
		Metadata: map[string]string{
			metaOwner: ownerID,
			metaLink:  item.Link,
		},
	})
	if err != nil {
		return false, &IndexError{Op: "insert", OwnerID: ownerID, Err: err}
	}
	return inserted, nil
}

// QueryRelevantLinks returns owner's links most similar to skills, one
// similarity search window per skill, deduplicated by link in first-seen
// order. It never fails: index errors are logged and yield no links.
func (s *Store) QueryRelevantLinks(ctx context.Context, ownerID string, skills []string, topK int) []string {
	links := []string{}
	if ownerID == "" || topK <= 0 {
		return links
	}

	queries := make([]string, 0, len(skills))
	for _, skill := range skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			queries = append(queries, skill)
		}
	}
	if len(queries) == 0 {
		return links
	}

	results, err := s.index.SimilaritySearch(ctx, queries, topK*s.pool)
	if err != nil {
		s.logger.Warn("portfolio query failed, continuing without links",
			zap.String(logger.FieldOwner, ownerID),
			zap.Error(&IndexError{Op: "query", OwnerID: ownerID, Err: err}))
		return links
	}

	seen := make(map[string]bool)
	for _, candidates := range results {
		taken := 0
		for _, c := range candidates {
			if taken == topK {
				break
			}
			// The index is shared; anything not owned by the caller is dropped here.
			if c.Metadata[metaOwner] != ownerID {
				continue
			}
			taken++

			link := c.Metadata[metaLink]
			if link == "" || seen[link] {
				continue
			}
			seen[link] = true
			links = append(links, link)
		}
	}
	return links
}

// List returns the owner's entries in insertion order.
func (s *Store) List(ctx context.Context, ownerID string) ([]models.PortfolioEntry, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}

	docs, err := s.index.Where(ctx, metaOwner, ownerID)
	if err != nil {
		return nil, &IndexError{Op: "list", OwnerID: ownerID, Err: err}
	}

	entries := make([]models.PortfolioEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, models.PortfolioEntry{
			ID:        doc.ID,
			OwnerID:   ownerID,
			Techstack: doc.Text,
			Link:      doc.Metadata[metaLink],
		})
	}
	return entries, nil
}

// Prune deletes the owner's entries that are not in declared and returns how
// many were removed. SyncPortfolio never calls it; profile edits do.
func (s *Store) Prune(ctx context.Context, ownerID string, declared []models.PortfolioItem) (int, error) {
	if ownerID == "" {
		return 0, ErrNoOwner
	}

	keep := make(map[string]bool, len(declared))
	for _, raw := range declared {
		item := normalize(raw)
		keep[EntryKey(ownerID, item.Techstack, item.Link)] = true
	}

	docs, err := s.index.Where(ctx, metaOwner, ownerID)
	if err != nil {
		return 0, &IndexError{Op: "prune", OwnerID: ownerID, Err: err}
	}

	var stale []string
	for _, doc := range docs {
		if !keep[doc.Key] {
			stale = append(stale, doc.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	removed, err := s.index.Delete(ctx, stale...)
	if err != nil {
		return removed, &IndexError{Op: "prune", OwnerID: ownerID, Err: err}
	}

	s.logger.Debug("pruned stale portfolio entries",
		zap.String(logger.FieldOwner, ownerID),
		zap.Int("removed", removed))

	return removed, nil
}
