// Package embeddings реализует клиент построения векторных представлений
// текста через OpenAI API для индексации и поиска по базе знаний.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
	openai "github.com/sashabaranov/go-openai"
)

// Embedder описывает интерфейс построения эмбеддингов.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
	EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error)
}

// Client клиент OpenAI для построения эмбеддингов.
type Client struct {
	api   *openai.Client
	model openai.EmbeddingModel
}

// NewClient создаёт клиент с заданной моделью.
// Пустое имя модели означает text-embedding-3-small.
func NewClient(apiKey, model string) *Client {
	m := openai.SmallEmbedding3
	if model != "" {
		m = openai.EmbeddingModel(model)
	}
	return &Client{
		api:   openai.NewClient(apiKey),
		model: m,
	}
}

// Embed возвращает вектор для одного текста.
func (c *Client) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return pgvector.Vector{}, err
	}
	return vectors[0], nil
}

// EmbedBatch возвращает векторы для набора текстов, сохраняя порядок.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	const op = "embeddings.EmbedBatch"
	if len(texts) == 0 {
		return nil, errors.New(op + ": empty input")
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%s: expected %d embeddings, got %d", op, len(texts), len(resp.Data))
	}

	vectors := make([]pgvector.Vector, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = pgvector.NewVector(d.Embedding)
	}
	return vectors, nil
}
