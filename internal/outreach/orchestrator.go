// Package outreach turns a careers page into one cold email per job posting.
package outreach

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/khrees2412/coldreach/internal/ai"
	"github.com/khrees2412/coldreach/internal/cache"
	"github.com/khrees2412/coldreach/internal/logger"
	"github.com/khrees2412/coldreach/pkg/models"
)

const DefaultTopK = 2

type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type JobExtractor interface {
	Extract(ctx context.Context, text string) ([]models.JobPosting, error)
}

type LinkFinder interface {
	QueryRelevantLinks(ctx context.Context, ownerID string, skills []string, topK int) []string
}

type EmailComposer interface {
	Compose(ctx context.Context, job models.JobPosting, links []string, sender ai.Sender) (string, error)
}

// Result is one job posting and the email drafted for it.
type Result struct {
	Job   models.JobPosting `json:"job"`
	Email string            `json:"email"`
	Links []string          `json:"links"`
}

type Orchestrator struct {
	fetcher   PageFetcher
	extractor JobExtractor
	links     LinkFinder
	composer  EmailComposer
	logger    *zap.Logger

	cache    cache.Store
	cacheTTL time.Duration
	topK     int
	group    singleflight.Group
}

type Option func(*Orchestrator)

// WithCache stores extracted jobs per URL for ttl. A ttl <= 0 disables writes.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.cache = store
		o.cacheTTL = ttl
	}
}

func WithTopK(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.topK = n
		}
	}
}

func NewOrchestrator(fetcher PageFetcher, extractor JobExtractor, links LinkFinder, composer EmailComposer, log *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:   fetcher,
		extractor: extractor,
		links:     links,
		composer:  composer,
		logger:    logger.OrNop(log),
		topK:      DefaultTopK,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process drafts an email for every job posting found at url, in extraction
// order. A page with no jobs yields an empty slice. A job whose email cannot
// be composed is skipped; if every job fails the first failure is returned
// as a *CompositionError.
func (o *Orchestrator) Process(ctx context.Context, url string, user *models.User) ([]Result, error) {
	if user == nil || user.ID == "" {
		return nil, ErrNoUser
	}
	log := o.logger.With(zap.String(logger.FieldURL, url), zap.String(logger.FieldOwner, user.ID))

	jobs, err := o.jobs(ctx, url)
	if err != nil {
		return nil, err
	}
	log.Debug("jobs extracted", zap.Int("count", len(jobs)))

	sender := ai.Sender{Name: user.Name, Position: user.Position, Company: user.Company}
	results := make([]Result, 0, len(jobs))
	var firstErr *CompositionError

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		links := o.links.QueryRelevantLinks(ctx, user.ID, job.Skills, o.topK)
		email, err := o.composer.Compose(ctx, job, links, sender)
		if err != nil {
			log.Warn("skipping job: email composition failed",
				zap.Int(logger.FieldJobIndex, i),
				zap.String("role", job.Role),
				zap.Error(err))
			if firstErr == nil {
				firstErr = &CompositionError{Job: job, Err: err}
			}
			continue
		}

		results = append(results, Result{Job: job, Email: email, Links: links})
	}

	if len(results) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// jobs returns the postings for url from cache, or fetches and extracts them.
// Concurrent calls for the same url share one fetch, which is detached from
// any single caller's cancellation; each caller still returns as soon as its
// own ctx is done.
func (o *Orchestrator) jobs(ctx context.Context, url string) ([]models.JobPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := cache.Key("jobs", url)
	if jobs, ok := o.cached(ctx, key); ok {
		return jobs, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := o.group.DoChan(url, func() (any, error) {
		text, err := o.fetcher.Fetch(shared, url)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			return nil, &InputError{URL: url, Err: err}
		}

		jobs, err := o.extractor.Extract(shared, text)
		if err != nil {
			return nil, err
		}
		if jobs == nil {
			jobs = []models.JobPosting{}
		}

		o.store(shared, key, jobs)
		return jobs, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if res.Err != nil {
		return nil, res.Err
	}

	found := res.Val.([]models.JobPosting)
	jobs := make([]models.JobPosting, len(found))
	copy(jobs, found)
	return jobs, nil
}

func (o *Orchestrator) cached(ctx context.Context, key string) ([]models.JobPosting, bool) {
	if o.cache == nil {
		return nil, false
	}
	data, ok, err := o.cache.Get(ctx, key)
	if err != nil {
		o.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var jobs []models.JobPosting
	if err := json.Unmarshal(data, &jobs); err != nil {
		o.logger.Warn("discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if jobs == nil {
		jobs = []models.JobPosting{}
	}
	return jobs, true
}

func (o *Orchestrator) store(ctx context.Context, key string, jobs []models.JobPosting) {
	if o.cache == nil || o.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(jobs)
	if err != nil {
		o.logger.Warn("encode jobs for cache", zap.Error(err))
		return
	}
	if err := o.cache.Set(ctx, key, data, o.cacheTTL); err != nil {
		o.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
