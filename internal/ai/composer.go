package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/khrees2412/coldreach/internal/logger"
	"github.com/khrees2412/coldreach/pkg/models"
)

//go:embed email_prompt.md
var emailPromptTemplate string

// Sender is who the cold email is written as.
type Sender struct {
	Name     string
	Position string
	Company  string
}

// Composer drafts a cold email for one job posting.
type Composer struct {
	generator Generator
	logger    *zap.Logger
}

func NewComposer(generator Generator, provider string, log *zap.Logger) *Composer {
	return &Composer{
		generator: generator,
		logger:    logger.WithCommonFields(log, provider, generator.Model()),
	}
}

func (c *Composer) Compose(ctx context.Context, job models.JobPosting, links []string, sender Sender) (string, error) {
	prompt, err := buildEmailPrompt(job, links, sender)
	if err != nil {
		return "", err
	}

	c.logger.Debug("composing email",
		zap.String("role", job.Role),
		zap.Int("links", len(links)),
		zap.Int("prompt_length", len(prompt)))

	email, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("compose email: %w", err)
	}

	email = strings.TrimSpace(extractFenced(email))
	if email == "" {
		return "", errors.New("compose email: model returned empty email")
	}
	return email, nil
}

func buildEmailPrompt(job models.JobPosting, links []string, sender Sender) (string, error) {
	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}

	linkList := "(none; do not mention portfolio links)"
	if len(links) > 0 {
		lines := make([]string, 0, len(links))
		for _, link := range links {
			lines = append(lines, "- "+link)
		}
		linkList = strings.Join(lines, "\n")
	}

	replacer := strings.NewReplacer(
		"{{JOB}}", string(jobJSON),
		"{{SENDER_NAME}}", sender.Name,
		"{{SENDER_POSITION}}", sender.Position,
		"{{SENDER_COMPANY}}", sender.Company,
		"{{LINKS}}", linkList,
	)
	return replacer.Replace(emailPromptTemplate), nil
}

// extractFenced unwraps a reply the model put inside a markdown code block.
func extractFenced(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	if nl := strings.Index(raw, "\n"); nl != -1 {
		raw = raw[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(raw), "```")
}
