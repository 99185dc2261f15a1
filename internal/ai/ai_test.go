package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/khrees2412/coldreach/internal/config"
	"github.com/khrees2412/coldreach/internal/logger"
	"github.com/khrees2412/coldreach/pkg/models"
)

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeGenerator) Model() string { return "fake" }

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
		want  []models.JobPosting
	}{
		{
			name:  "array",
			reply: `[{"role":"Backend Engineer","experience":"3+ years","skills":["Go","PostgreSQL"],"description":"Build APIs"},{"role":"SRE","experience":"","skills":["Kubernetes"],"description":"Run infra"}]`,
			want: []models.JobPosting{
				{Role: "Backend Engineer", Experience: "3+ years", Skills: []string{"Go", "PostgreSQL"}, Description: "Build APIs"},
				{Role: "SRE", Experience: "", Skills: []string{"Kubernetes"}, Description: "Run infra"},
			},
		},
		{
			name:  "single object normalized to list",
			reply: `{"role":"Data Scientist","experience":2,"skills":"Python, SQL ,","description":"Models"}`,
			want: []models.JobPosting{
				{Role: "Data Scientist", Experience: "2", Skills: []string{"Python", "SQL"}, Description: "Models"},
			},
		},
		{
			name:  "fenced with prose",
			reply: "```json\n[{\"role\":\"iOS Engineer\",\"skills\":[\"Swift\"]}]\n```",
			want: []models.JobPosting{
				{Role: "iOS Engineer", Skills: []string{"Swift"}},
			},
		},
		{
			name:  "preamble before array",
			reply: "Here are the jobs:\n[{\"role\":\"PM\",\"skills\":[]}]\nHope this helps.",
			want: []models.JobPosting{
				{Role: "PM", Skills: []string{}},
			},
		},
		{
			name:  "wrapped in jobs key",
			reply: `{"jobs":[{"role":"QA","skills":null}]}`,
			want: []models.JobPosting{
				{Role: "QA", Skills: []string{}},
			},
		},
		{
			name:  "no jobs",
			reply: `[]`,
			want:  []models.JobPosting{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gen := &fakeGenerator{reply: tt.reply}
			jobs, err := NewExtractor(gen, "", nil).Extract(context.Background(), "careers page text")
			require.NoError(t, err)
			assert.Equal(t, tt.want, jobs)
			require.Len(t, gen.prompts, 1)
			assert.Contains(t, gen.prompts[0], "careers page text")
		})
	}
}

func TestExtractUnparseableOutput(t *testing.T) {
	for _, reply := range []string{"Sorry, the page is too long.", `"just a string"`, `[1, 2]`, "   "} {
		gen := &fakeGenerator{reply: reply}
		_, err := NewExtractor(gen, "", nil).Extract(context.Background(), "text")

		var extractionErr *ExtractionError
		require.ErrorAs(t, err, &extractionErr, "reply %q", reply)
		assert.Equal(t, reply, extractionErr.Raw)
		assert.Contains(t, err.Error(), "unable to parse jobs")
	}
}

func TestExtractGeneratorFailureIsNotExtractionError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	_, err := NewExtractor(gen, "", nil).Extract(context.Background(), "text")

	require.Error(t, err)
	var extractionErr *ExtractionError
	assert.False(t, errors.As(err, &extractionErr))
}

func TestExtractDropsPostingsWithoutRole(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	gen := &fakeGenerator{reply: `[{"role":"","skills":["Go"]},{"role":"Engineer","skills":["Go"]}]`}

	jobs, err := NewExtractor(gen, "", zap.New(core)).Extract(context.Background(), "text")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Engineer", jobs[0].Role)
	assert.Equal(t, 1, logs.FilterMessage("dropping malformed job posting").Len())
}

func TestExtractAllPostingsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
	}{
		{name: "role under another key", reply: `[{"title":"Backend Engineer"}]`},
		{name: "empty object", reply: `[{}]`},
		{name: "single object without role", reply: `{"position":"SRE"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			jobs, err := NewExtractor(&fakeGenerator{reply: tt.reply}, "", nil).Extract(context.Background(), "text")

			var extractionErr *ExtractionError
			require.ErrorAs(t, err, &extractionErr)
			assert.Equal(t, tt.reply, extractionErr.Raw)
			assert.Contains(t, err.Error(), "no valid job postings")
			assert.Nil(t, jobs)
		})
	}
}

func TestExtractorLogsProviderAndModel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	gen := &fakeGenerator{reply: `[{"role":""},{"role":"Engineer"}]`}

	_, err := NewExtractor(gen, "gemini", zap.New(core)).Extract(context.Background(), "text")
	require.NoError(t, err)

	entries := logs.FilterMessage("dropping malformed job posting").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "gemini", fields[logger.FieldProvider])
	assert.Equal(t, "fake", fields[logger.FieldModel])
}

func TestCompose(t *testing.T) {
	gen := &fakeGenerator{reply: "```\nSubject: Scaling your Go backend\n\nHi there,\n```"}
	job := models.JobPosting{Role: "Backend Engineer", Skills: []string{"Go"}, Description: "Build APIs"}
	sender := Sender{Name: "Mohan", Position: "Business Development Executive", Company: "AtliQ"}

	email, err := NewComposer(gen, "", nil).Compose(context.Background(), job, []string{"a.com", "b.com"}, sender)
	require.NoError(t, err)
	assert.Equal(t, "Subject: Scaling your Go backend\n\nHi there,", email)

	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "You are Mohan, a Business Development Executive at AtliQ.")
	assert.Contains(t, prompt, "- a.com\n- b.com")
	assert.Contains(t, prompt, `"role": "Backend Engineer"`)
	assert.NotContains(t, prompt, "{{")
}

func TestComposeWithoutLinks(t *testing.T) {
	gen := &fakeGenerator{reply: "Subject: Hello"}
	_, err := NewComposer(gen, "", nil).Compose(context.Background(), models.JobPosting{Role: "SRE"}, nil, Sender{Name: "A"})
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], "(none; do not mention portfolio links)")
}

func TestComposeFailures(t *testing.T) {
	_, err := NewComposer(&fakeGenerator{err: errors.New("timeout")}, "", nil).
		Compose(context.Background(), models.JobPosting{Role: "SRE"}, nil, Sender{})
	assert.ErrorContains(t, err, "timeout")

	_, err = NewComposer(&fakeGenerator{reply: "  "}, "", nil).
		Compose(context.Background(), models.JobPosting{Role: "SRE"}, nil, Sender{})
	assert.ErrorContains(t, err, "empty email")
}

func TestChatCompletions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])

		w.Write([]byte(`{"choices":[{"message":{"content":"  hello  "}}]}`))
	}))
	defer srv.Close()

	gen := NewChatCompletions(srv.Client(), srv.URL+"/", "sk-test", "gpt-test")
	out, err := gen.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "gpt-test", gen.Model())
}

func TestChatCompletionsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	_, err := NewChatCompletions(srv.Client(), srv.URL, "", "m").Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["stream"])
		assert.True(t, strings.Contains(body["prompt"].(string), "hi"))

		w.Write([]byte(`{"response":"there"}`))
	}))
	defer srv.Close()

	out, err := NewOllama(srv.Client(), srv.URL, "llama3.2").Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "there", out)
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	_, err := NewGenerator(ctx, &config.Config{AIProvider: "gemini"})
	assert.ErrorContains(t, err, "gemini API key not configured")

	_, err = NewGenerator(ctx, &config.Config{AIProvider: "openai"})
	assert.ErrorContains(t, err, "OpenAI API key not configured")

	_, err = NewGenerator(ctx, &config.Config{AIProvider: "anthropic"})
	assert.ErrorContains(t, err, "unsupported AI provider")

	gen, err := NewGenerator(ctx, &config.Config{AIProvider: "ollama", OllamaURL: "http://localhost:11434"})
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", gen.Model())

	gen, err = NewGenerator(ctx, &config.Config{AIProvider: "lmstudio", DefaultModel: "qwen"})
	require.NoError(t, err)
	assert.Equal(t, "qwen", gen.Model())
}
