package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnavailable = errors.New("ai provider unavailable")

// IProvider is a chat-completion + embedding backend. Providers are
// registered by name and constructed from the raw config blob.
type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, systemPrompt string, userMessage string) (string, error)
}

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

// IGenerator is the orchestrator-facing generation capability. The
// caller owns the deadline; implementations must respect ctx.
type IGenerator interface {
	Generate(ctx context.Context, systemPrompt string, userMessage string) (string, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Generate(ctx context.Context, systemPrompt string, userMessage string) (string, error) {
	return g.provider.Generate(ctx, g.model, systemPrompt, userMessage)
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

type ProviderFactory func(args interface{}) (IProvider, error)

type EmbedProviderFactory func(args interface{}) (IEmbedProvider, error)

var (
	registry      = map[string]ProviderFactory{}
	embedRegistry = map[string]EmbedProviderFactory{}
)

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func RegisterEmbed(name string, factory EmbedProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.embed_provider is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai embed provider: %s", name)
	}
	return factory(args)
}
