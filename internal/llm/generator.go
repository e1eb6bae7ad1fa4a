package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/ppiankov/evidentia/internal/model"
)

// Generator produces verifiable narratives through a configured provider.
// It owns the response contract: parse, validate, reject.
type Generator struct {
	provider Provider
	limiter  *rate.Limiter
	config   Config
}

// NewGenerator creates a generator for the configured provider. A nil
// generator with a nil error means narrative generation is disabled.
func NewGenerator(config Config) (*Generator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}

	rpm := config.RequestsPerMinute
	if rpm <= 0 {
		rpm = DefaultConfig().RequestsPerMinute
	}

	return &Generator{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rpm/60.0), 1),
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is wired in.
func (g *Generator) IsEnabled() bool {
	return g != nil && g.provider != nil
}

// Generate asks the provider for a narrative over the routed facts and
// validates the response contract. The returned narrative still has to pass
// the alignment verifier before it can be shown to anyone.
func (g *Generator) Generate(ctx context.Context, facts []*model.Fact, meta *model.Meta, cls *model.ClassificationResult) (*model.Narrative, error) {
	if !g.IsEnabled() {
		return nil, fmt.Errorf("no narrative provider configured")
	}
	if len(facts) == 0 {
		return nil, fmt.Errorf("no facts to narrate")
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	completion, err := g.provider.Complete(ctx, CompletionRequest{
		System:    systemInstruction,
		Prompt:    BuildPrompt(facts, meta, cls),
		Model:     g.config.Model,
		MaxTokens: g.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.provider.Name(), err)
	}

	narrative, err := ParseNarrative(completion.Text)
	if err != nil {
		return nil, fmt.Errorf("%s response rejected: %w", g.provider.Name(), err)
	}
	return narrative, nil
}

// ParseNarrative parses and validates the strict JSON response contract.
// A response without the sentence-to-token map is unverifiable and is
// rejected here rather than passed downstream.
func ParseNarrative(raw string) (*model.Narrative, error) {
	payload := stripCodeFence(strings.TrimSpace(raw))
	if payload == "" {
		return nil, fmt.Errorf("empty response")
	}

	var narrative model.Narrative
	if err := json.Unmarshal([]byte(payload), &narrative); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}

	if strings.TrimSpace(narrative.Text) == "" {
		return nil, fmt.Errorf("missing narrative text")
	}
	if len(narrative.Sentences) == 0 {
		return nil, fmt.Errorf("missing sentence-to-token map")
	}
	for i, s := range narrative.Sentences {
		if strings.TrimSpace(s.Text) == "" {
			return nil, fmt.Errorf("sentence %d has no text", i+1)
		}
		if len(s.Tokens) == 0 {
			return nil, fmt.Errorf("sentence %d claims no tokens", i+1)
		}
	}

	// a model that omits used_tokens but grounds its sentences is still
	// verifiable: reconstruct the declaration from the sentence map
	if len(narrative.UsedTokens) == 0 {
		seen := make(map[string]bool)
		for _, s := range narrative.Sentences {
			for _, id := range s.Tokens {
				if !seen[id] {
					seen[id] = true
					narrative.UsedTokens = append(narrative.UsedTokens, id)
				}
			}
		}
	}

	return &narrative, nil
}

// stripCodeFence removes a markdown ```json fence if the model wrapped its
// answer in one.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
