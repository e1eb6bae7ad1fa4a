package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/ppiankov/evidentia/internal/model"
)

func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *Completion
	err       error
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func sampleFacts() []*model.Fact {
	return []*model.Fact{{
		FactID: "f1",
		Text:   "Иванов получил 500 000 тенге.",
		Role:   model.RoleSuspectAction,
		Tokens: []model.Token{
			{TokenID: "tok-1", Type: model.TokenAmount, Value: "500 000 тенге"},
		},
		SourceRefs: []model.SourceRef{{DocumentID: "doc-1", Page: 1}},
		Confidence: 1.0,
	}}
}

func TestNewGeneratorDisabled(t *testing.T) {
	gen, err := NewGenerator(Config{Provider: ""})
	if err != nil {
		t.Fatalf("disabled provider returned error: %v", err)
	}
	if gen != nil {
		t.Error("disabled provider must yield a nil generator")
	}
	if gen.IsEnabled() {
		t.Error("nil generator reports enabled")
	}
}

func TestNewGeneratorUnknownProvider(t *testing.T) {
	if _, err := NewGenerator(Config{Provider: "gemini"}); err == nil {
		t.Fatal("unknown provider accepted")
	}
}

func TestGenerateValidResponse(t *testing.T) {
	gen := &Generator{
		provider: &MockProvider{
			name: "mock",
			response: &Completion{
				Text: `{"text":"Иванов получил 500 000 тенге.","used_tokens":["tok-1"],` +
					`"sentences":[{"text":"Иванов получил 500 000 тенге.","tokens":["tok-1"]}]}`,
			},
		},
		config: DefaultConfig(),
	}
	gen.limiter = newTestLimiter()

	narrative, err := gen.Generate(context.Background(), sampleFacts(), nil, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(narrative.Sentences) != 1 {
		t.Errorf("sentences = %d, want 1", len(narrative.Sentences))
	}
	if len(narrative.UsedTokens) != 1 || narrative.UsedTokens[0] != "tok-1" {
		t.Errorf("used tokens = %v, want [tok-1]", narrative.UsedTokens)
	}
}

func TestGenerateRejectsMissingSentenceMap(t *testing.T) {
	gen := &Generator{
		provider: &MockProvider{
			name:     "mock",
			response: &Completion{Text: `{"text":"Фабула без карты.","used_tokens":["tok-1"]}`},
		},
		config: DefaultConfig(),
	}
	gen.limiter = newTestLimiter()

	_, err := gen.Generate(context.Background(), sampleFacts(), nil, nil)
	if err == nil {
		t.Fatal("response without a sentence map was accepted")
	}
	if !strings.Contains(err.Error(), "sentence-to-token map") {
		t.Errorf("error = %v, want the missing-map rejection", err)
	}
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	gen := &Generator{
		provider: &MockProvider{name: "mock", err: errors.New("backend down")},
		config:   DefaultConfig(),
	}
	gen.limiter = newTestLimiter()

	if _, err := gen.Generate(context.Background(), sampleFacts(), nil, nil); err == nil {
		t.Fatal("provider error was swallowed")
	}
}

func TestGenerateEmptyFactSet(t *testing.T) {
	gen := &Generator{
		provider: &MockProvider{name: "mock"},
		config:   DefaultConfig(),
	}
	gen.limiter = newTestLimiter()

	if _, err := gen.Generate(context.Background(), nil, nil, nil); err == nil {
		t.Fatal("empty fact set must not produce a narrative")
	}
}

func TestParseNarrative(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			"plain json",
			`{"text":"т","sentences":[{"text":"т","tokens":["tok-1"]}]}`,
			false,
		},
		{
			"fenced json",
			"```json\n{\"text\":\"т\",\"sentences\":[{\"text\":\"т\",\"tokens\":[\"tok-1\"]}]}\n```",
			false,
		},
		{"empty", "", true},
		{"not json", "Фабула: деньги были получены.", true},
		{"sentence without tokens", `{"text":"т","sentences":[{"text":"т","tokens":[]}]}`, true},
		{"sentence without text", `{"text":"т","sentences":[{"text":"","tokens":["tok-1"]}]}`, true},
		{"no text", `{"text":"","sentences":[{"text":"т","tokens":["tok-1"]}]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNarrative(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseNarrative() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseNarrativeReconstructsUsedTokens(t *testing.T) {
	narrative, err := ParseNarrative(
		`{"text":"т","sentences":[` +
			`{"text":"а","tokens":["tok-2","tok-1"]},` +
			`{"text":"б","tokens":["tok-1","tok-3"]}]}`)
	if err != nil {
		t.Fatalf("ParseNarrative failed: %v", err)
	}
	want := []string{"tok-2", "tok-1", "tok-3"}
	if len(narrative.UsedTokens) != len(want) {
		t.Fatalf("used tokens = %v, want %v", narrative.UsedTokens, want)
	}
	for i := range want {
		if narrative.UsedTokens[i] != want[i] {
			t.Errorf("used tokens = %v, want %v", narrative.UsedTokens, want)
			break
		}
	}
}

func TestBuildPromptListsTokens(t *testing.T) {
	facts := sampleFacts()
	cls := &model.ClassificationResult{Primary: "190"}

	prompt := BuildPrompt(facts, &model.Meta{Suspects: []string{"Иванов"}}, cls)
	for _, want := range []string{"tok-1", "500 000 тенге", "статья 190", "Иванов"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
