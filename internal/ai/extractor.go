package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/khrees2412/coldreach/internal/logger"
	"github.com/khrees2412/coldreach/pkg/models"
)

//go:embed extract_prompt.md
var extractPromptTemplate string

const maxLogLength = 300

// Extractor turns careers-page text into job postings.
type Extractor struct {
	generator Generator
	logger    *zap.Logger
	validate  *validator.Validate
}

func NewExtractor(generator Generator, provider string, log *zap.Logger) *Extractor {
	return &Extractor{
		generator: generator,
		logger:    logger.WithCommonFields(log, provider, generator.Model()),
		validate:  validator.New(),
	}
}

// Extract always returns a list; a single posting is returned as one element
// and a page without postings yields an empty list. Output that is not JSON,
// or whose records all fail validation, fails with *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, text string) ([]models.JobPosting, error) {
	prompt := strings.ReplaceAll(extractPromptTemplate, "{{PAGE_TEXT}}", text)

	e.logger.Debug("extracting jobs", zap.Int("prompt_length", len(prompt)))

	raw, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract jobs: %w", err)
	}

	e.logger.Debug("extraction response", zap.String("preview", logger.TruncateForLog(raw, maxLogLength)))

	records, err := parseJobRecords(raw)
	if err != nil {
		return nil, &ExtractionError{Raw: raw, Err: err}
	}

	jobs := make([]models.JobPosting, 0, len(records))
	var firstErr error
	for i, record := range records {
		job := toJobPosting(record)
		if err := e.validate.Struct(job); err != nil {
			e.logger.Warn("dropping malformed job posting", zap.Int(logger.FieldJobIndex, i), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		jobs = append(jobs, job)
	}

	if len(records) > 0 && len(jobs) == 0 {
		return nil, &ExtractionError{Raw: raw, Err: fmt.Errorf("no valid job postings in model output: %w", firstErr)}
	}
	return jobs, nil
}

// parseJobRecords accepts a JSON array of objects, a single object, or an
// object wrapping the array under "jobs".
func parseJobRecords(raw string) ([]map[string]any, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, errors.New("empty model output")
	}

	var decoded any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	if obj, ok := decoded.(map[string]any); ok {
		if list, ok := obj["jobs"].([]any); ok {
			decoded = list
		} else {
			return []map[string]any{obj}, nil
		}
	}

	list, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON array or object, got %T", decoded)
	}

	records := make([]map[string]any, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("job %d: expected object, got %T", i, item)
		}
		records = append(records, obj)
	}
	return records, nil
}

func toJobPosting(record map[string]any) models.JobPosting {
	return models.JobPosting{
		Role:        coerceString(record["role"]),
		Experience:  coerceString(record["experience"]),
		Skills:      coerceStrings(record["skills"]),
		Description: coerceString(record["description"]),
	}
}

// extractJSON strips markdown fences and any prose around the first JSON value.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	start := strings.IndexAny(raw, "[{")
	if start == -1 {
		return raw
	}
	closer := "]"
	if raw[start] == '{' {
		closer = "}"
	}
	if end := strings.LastIndex(raw, closer); end > start {
		return raw[start : end+1]
	}
	return raw[start:]
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// coerceStrings reads a list of strings, or a comma-separated string.
func coerceStrings(v any) []string {
	var parts []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			parts = append(parts, coerceString(item))
		}
	case string:
		parts = strings.Split(val, ",")
	case nil:
		return []string{}
	default:
		parts = []string{coerceString(val)}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
