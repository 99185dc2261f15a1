package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

const defaultDimensions = 256

// Common stop words to ignore
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true,
}

// Local is an offline feature-hashing embedder. Word tokens and their
// character trigrams are hashed into a fixed number of signed buckets, so
// texts sharing words or word fragments land close together.
type Local struct {
	dims int
}

// NewLocal returns a Local embedder; dims <= 0 selects the default.
func NewLocal(dims int) *Local {
	if dims <= 0 {
		dims = defaultDimensions
	}
	return &Local{dims: dims}
}

func (l *Local) Model() string {
	return fmt.Sprintf("local-hash-%d", l.dims)
}

func (l *Local) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = l.vector(text)
	}
	return out, nil
}

func (l *Local) vector(text string) []float32 {
	v := make([]float32, l.dims)
	for _, token := range tokenize(text) {
		l.add(v, "w:"+token, 1)
		for _, gram := range trigrams(token) {
			l.add(v, "g:"+gram, 0.5)
		}
	}
	Normalize(v)
	return v
}

func (l *Local) add(v []float32, feature string, weight float32) {
	h := fnv.New32a()
	h.Write([]byte(feature))
	sum := h.Sum32()
	idx := int(sum % uint32(l.dims))
	if sum&(1<<31) != 0 {
		weight = -weight
	}
	v[idx] += weight
}

// tokenize lowercases text and splits it into words, keeping symbols that
// carry meaning in technology names (c++, c#, node.js).
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '.'
	})

	tokens := make([]string, 0, len(fields))
	for _, word := range fields {
		word = strings.Trim(word, ".")
		if word == "" || stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func trigrams(token string) []string {
	runes := []rune("^" + token + "$")
	if len(runes) < 3 {
		return nil
	}
	grams := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+3]))
	}
	return grams
}
