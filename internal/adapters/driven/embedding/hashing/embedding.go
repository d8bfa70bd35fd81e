// Package hashing provides an offline embedding service based on feature hashing.
//
// Each text is tokenised into lower-case words. Stopwords are dropped, and the
// remaining unigrams and adjacent bigrams are hashed into a fixed number of
// buckets with a signed FNV-1a hash. The resulting vector is L2-normalised, so
// cosine similarity reduces to a dot product. The embedder is deterministic and
// needs no model download, which makes it the default provider and the one
// used in tests.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultDimensions   = 512
	DefaultBigramWeight = 0.5
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Option configures the embedder.
type Option func(*EmbeddingService)

// WithDimensions sets the vector size.
func WithDimensions(dims int) Option {
	return func(s *EmbeddingService) {
		s.dimensions = dims
	}
}

// WithBigramWeight sets the contribution of each bigram relative to a unigram.
// Zero disables bigrams.
func WithBigramWeight(w float64) Option {
	return func(s *EmbeddingService) {
		s.bigramWeight = w
	}
}

// EmbeddingService computes feature-hashing embeddings locally.
type EmbeddingService struct {
	dimensions   int
	bigramWeight float64
	stopwords    map[string]struct{}
}

// NewEmbeddingService creates a hashing embedder.
func NewEmbeddingService(opts ...Option) (*EmbeddingService, error) {
	s := &EmbeddingService{
		dimensions:   DefaultDimensions,
		bigramWeight: DefaultBigramWeight,
		stopwords:    defaultStopwords(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dimensions <= 0 {
		return nil, fmt.Errorf("hashing: dimensions must be positive, got %d", s.dimensions)
	}
	if s.bigramWeight < 0 {
		return nil, fmt.Errorf("hashing: bigram weight must not be negative, got %v", s.bigramWeight)
	}
	return s, nil
}

// ModelNameFor returns the model name an embedder of the given size reports.
func ModelNameFor(dims int) string {
	return fmt.Sprintf("hashing-%d", dims)
}

// DimensionsFromModel parses a "hashing-N" model name. Returns DefaultDimensions
// for anything else.
func DimensionsFromModel(model string) int {
	var dims int
	if _, err := fmt.Sscanf(model, "hashing-%d", &dims); err != nil || dims <= 0 {
		return DefaultDimensions
	}
	return dims
}

// Embed generates a vector for the given text. Text with no indexable words
// yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dimensions)
	tokens := s.tokenize(text)
	for i, tok := range tokens {
		s.add(vec, tok, 1)
		if s.bigramWeight > 0 && i > 0 {
			s.add(vec, tokens[i-1]+" "+tok, s.bigramWeight)
		}
	}

	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}

	out := make([]float32, s.dimensions)
	if sumSq == 0 {
		return out, nil
	}
	norm := 1 / math.Sqrt(sumSq)
	for i, v := range vec {
		out[i] = float32(v * norm)
	}
	return out, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns "hashing-<dimensions>".
func (s *EmbeddingService) ModelName() string {
	return ModelNameFor(s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// add hashes a feature into its bucket. One hash bit picks the sign so that
// collisions tend to cancel rather than accumulate.
func (s *EmbeddingService) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(len(vec)))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func (s *EmbeddingService) tokenize(text string) []string {
	words := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := words[:0]
	for _, w := range words {
		if _, stop := s.stopwords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "about", "above", "after", "again", "against", "all", "am", "an", "and", "any", "are",
		"as", "at", "be", "because", "been", "before", "being", "below", "between", "both", "but",
		"by", "can", "did", "do", "does", "doing", "down", "during", "each", "few", "for", "from",
		"further", "had", "has", "have", "having", "he", "her", "here", "hers", "herself", "him",
		"himself", "his", "how", "i", "if", "in", "into", "is", "it", "its", "itself", "just", "me",
		"more", "most", "my", "myself", "no", "nor", "not", "now", "of", "off", "on", "once", "only",
		"or", "other", "our", "ours", "ourselves", "out", "over", "own", "same", "she", "should",
		"so", "some", "such", "than", "that", "the", "their", "theirs", "them", "themselves", "then",
		"there", "these", "they", "this", "those", "through", "to", "too", "under", "until", "up",
		"very", "was", "we", "were", "what", "when", "where", "which", "while", "who", "whom", "why",
		"will", "with", "you", "your", "yours", "yourself", "yourselves",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
