package driven

import "context"

// EmbeddingService turns text into vectors. The same service must embed
// both the indexed chunks and the queries searched against them.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the length of every vector the service returns.
	Dimensions() int

	// ModelName is recorded in the index so a model change can be detected.
	ModelName() string

	// Ping checks the provider answers, without embedding anything.
	Ping(ctx context.Context) error

	Close() error
}
