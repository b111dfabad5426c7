package embedding

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// LocalEmbedder is a deterministic TF-IDF vectorizer prepared from the
// protocol corpus at load time. It serves as the offline fallback provider:
// same corpus, same vectors, no network.
type LocalEmbedder struct {
	mu           sync.RWMutex
	vocabulary   map[string]int
	idf          []float64
	dimension    int
	prepared     bool
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// Compile-time check that LocalEmbedder implements Embedder.
var _ Embedder = (*LocalEmbedder)(nil)

// NewLocalEmbedder creates an unprepared TF-IDF embedder.
func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`\p{L}+`),
		stopwords:    spanishStopwords(),
	}
}

// Model returns the identifier of this embedder implementation.
func (e *LocalEmbedder) Model() string { return "tfidf-local" }

// Dimension returns the vocabulary size, or 0 before Prepare.
func (e *LocalEmbedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimension
}

// Prepare builds the vocabulary and smoothed IDF values from the corpus.
// Must be called before Embed; re-preparing replaces the vocabulary.
func (e *LocalEmbedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for tf-idf prepare")
	}

	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus")
	}

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	e.mu.Lock()
	e.vocabulary = vocab
	e.idf = idf
	e.dimension = len(terms)
	e.prepared = true
	e.mu.Unlock()
	return nil
}

// Embed computes the L2-normalized TF-IDF vector for the given text. A text
// with no known tokens yields a zero vector, which callers treat as "no
// similarity contribution".
func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.prepared {
		return nil, errors.New("local embedder not prepared")
	}

	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}

	out := make([]float32, e.dimension)
	if total == 0 {
		return out, nil
	}
	norm := 0.0
	for idx, count := range tf {
		v := float64(count) / float64(total) * e.idf[idx]
		vec[idx] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		if norm > 0 {
			out[i] = float32(v / norm)
		}
	}
	return out, nil
}

// EmbedBatch embeds each text in turn.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *LocalEmbedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// spanishStopwords covers common Spanish function words. Negations ("no",
// "sin") are deliberately kept out of the list: phrases like "no respira"
// carry clinical meaning.
func spanishStopwords() map[string]struct{} {
	words := []string{
		"de", "la", "el", "en", "y", "a", "los", "del", "se", "las", "por",
		"un", "para", "con", "una", "su", "al", "lo", "como", "más", "mas",
		"pero", "sus", "le", "ya", "o", "este", "porque", "esta", "entre",
		"cuando", "muy", "sobre", "también", "me", "hasta", "hay", "donde",
		"quien", "desde", "todo", "nos", "durante", "todos", "uno", "les",
		"ni", "contra", "otros", "ese", "eso", "ante", "ellos", "esto",
		"antes", "algunos", "qué", "unos", "yo", "otro", "otras", "otra",
		"él", "tanto", "esa", "estos", "mucho", "quienes", "nada", "muchos",
		"cual", "poco", "ella", "estar", "estas", "algunas", "algo",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
