// Package index is a single-namespace embedding index over SQLite. It knows
// nothing about owners; callers scope results through document metadata.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/khrees2412/coldreach/internal/embedding"
)

// Document is a piece of text stored with its embedding.
type Document struct {
	ID string
	// Key is an optional uniqueness key; per embedding model at most one
	// document holds a given key.
	Key      string
	Text     string
	Metadata map[string]string
}

// Candidate is a search hit.
type Candidate struct {
	Document
	Distance float64
}

// SQLite stores documents and their vectors in the embeddings table.
type SQLite struct {
	db       *sql.DB
	embedder embedding.Embedder
}

func NewSQLite(db *sql.DB, embedder embedding.Embedder) *SQLite {
	return &SQLite{db: db, embedder: embedder}
}

// Insert embeds and stores doc in a single statement. It reports false when a
// document with the same ID, or the same Key under the current model, already
// exists; the stored row is left untouched.
func (s *SQLite) Insert(ctx context.Context, doc Document) (bool, error) {
	if doc.ID == "" {
		return false, errors.New("document id is required")
	}

	vecs, err := s.embedder.Embed(ctx, []string{doc.Text})
	if err != nil {
		return false, fmt.Errorf("embed document: %w", err)
	}
	if len(vecs) != 1 {
		return false, fmt.Errorf("embedder returned %d vectors for 1 text", len(vecs))
	}

	meta, err := json.Marshal(orEmpty(doc.Metadata))
	if err != nil {
		return false, fmt.Errorf("encode metadata: %w", err)
	}

	query := `INSERT INTO embeddings (id, doc_key, content, metadata, vector, model)
			  VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`
	result, err := s.db.ExecContext(ctx, query, doc.ID, nullable(s.scopedKey(doc.Key)), doc.Text, string(meta),
		embedding.Encode(vecs[0]), s.embedder.Model())
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Lookup returns the document stored under key by the current model, or nil
// when absent.
func (s *SQLite) Lookup(ctx context.Context, key string) (*Document, error) {
	if key == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, doc_key, content, metadata FROM embeddings WHERE doc_key = ?`, s.scopedKey(key))
	doc, err := s.scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return doc, err
}

// Where returns the current model's documents whose metadata field equals
// value, oldest first.
func (s *SQLite) Where(ctx context.Context, field, value string) ([]Document, error) {
	query := `SELECT id, doc_key, content, metadata FROM embeddings
			  WHERE model = ? AND json_extract(metadata, '$.' || ?) = ? ORDER BY created_at, rowid`
	rows, err := s.db.QueryContext(ctx, query, s.embedder.Model(), field, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := s.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Delete removes documents by ID and returns how many were removed.
func (s *SQLite) Delete(ctx context.Context, ids ...string) (int, error) {
	removed := 0
	for _, id := range ids {
		result, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE id = ?`, id)
		if err != nil {
			return removed, err
		}
		n, _ := result.RowsAffected()
		removed += int(n)
	}
	return removed, nil
}

// SimilaritySearch returns, for each query, up to topK documents ordered by
// ascending cosine distance. Only vectors from the current embedding model
// are considered. Ties keep insertion order.
func (s *SQLite) SimilaritySearch(ctx context.Context, queries []string, topK int) ([][]Candidate, error) {
	results := make([][]Candidate, len(queries))
	if len(queries) == 0 || topK <= 0 {
		return results, nil
	}

	qvecs, err := s.embedder.Embed(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("embed queries: %w", err)
	}
	if len(qvecs) != len(queries) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d queries", len(qvecs), len(queries))
	}

	stored, err := s.loadVectors(ctx)
	if err != nil {
		return nil, err
	}

	for qi, qv := range qvecs {
		hits := make([]Candidate, 0, len(stored))
		for _, sv := range stored {
			hits = append(hits, Candidate{Document: sv.doc, Distance: embedding.CosineDistance(qv, sv.vec)})
		}
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
		if len(hits) > topK {
			hits = hits[:topK]
		}
		results[qi] = hits
	}
	return results, nil
}

type storedVector struct {
	doc Document
	vec []float32
}

func (s *SQLite) loadVectors(ctx context.Context) ([]storedVector, error) {
	query := `SELECT id, doc_key, content, metadata, vector FROM embeddings WHERE model = ? ORDER BY created_at, rowid`
	rows, err := s.db.QueryContext(ctx, query, s.embedder.Model())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storedVector
	for rows.Next() {
		var (
			id, content, meta string
			key               sql.NullString
			blob              []byte
		)
		if err := rows.Scan(&id, &key, &content, &meta, &blob); err != nil {
			return nil, err
		}
		vec, err := embedding.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decode vector %s: %w", id, err)
		}
		doc := Document{ID: id, Key: s.unscopedKey(key.String), Text: content}
		if err := json.Unmarshal([]byte(meta), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", id, err)
		}
		out = append(out, storedVector{doc: doc, vec: vec})
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLite) scanDocument(row scanner) (*Document, error) {
	var (
		doc  Document
		key  sql.NullString
		meta string
	)
	if err := row.Scan(&doc.ID, &key, &doc.Text, &meta); err != nil {
		return nil, err
	}
	doc.Key = s.unscopedKey(key.String)
	if err := json.Unmarshal([]byte(meta), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", doc.ID, err)
	}
	return &doc, nil
}

// Keys are stored per model so re-embedding with a new model inserts fresh rows.
func (s *SQLite) scopedKey(key string) string {
	if key == "" {
		return ""
	}
	return s.embedder.Model() + "/" + key
}

func (s *SQLite) unscopedKey(stored string) string {
	return strings.TrimPrefix(stored, s.embedder.Model()+"/")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
