package verify

import (
	"reflect"
	"testing"

	"github.com/ppiankov/evidentia/internal/model"
)

func fact(id string, critical bool, conf float64, refs []model.SourceRef, tokenIDs ...string) *model.Fact {
	tokens := make([]model.Token, len(tokenIDs))
	for i, tid := range tokenIDs {
		tokens[i] = model.Token{TokenID: tid, Type: model.TokenAmount, Value: tid}
	}
	return &model.Fact{
		FactID:     id,
		Text:       "text " + id,
		Role:       model.RoleSuspectAction,
		Tokens:     tokens,
		SourceRefs: refs,
		Confidence: conf,
		Critical:   critical,
	}
}

func refs(pages ...int) []model.SourceRef {
	out := make([]model.SourceRef, len(pages))
	for i, p := range pages {
		out[i] = model.SourceRef{DocumentID: "doc-1", Page: p}
	}
	return out
}

func hasIssue(violations []model.Violation, issue string) bool {
	for _, v := range violations {
		if v.Issue == issue {
			return true
		}
	}
	return false
}

func TestVerifyAlignmentOK(t *testing.T) {
	v := New(model.DefaultConfig().Verifier)
	facts := []*model.Fact{fact("f1", false, 0.8, refs(1), "tok-1", "tok-2")}
	narrative := &model.Narrative{
		Text:       "Иванов получил деньги.",
		UsedTokens: []string{"tok-1", "tok-2"},
		Sentences: []model.SentenceRef{
			{Text: "Иванов получил деньги.", Tokens: []string{"tok-1", "tok-2"}},
		},
	}

	report := v.VerifyAlignment(facts, narrative)
	if !report.OK {
		t.Fatalf("report not ok: %+v", report.Violations)
	}
	if report.SentenceCount != 1 {
		t.Errorf("sentence count = %d, want 1", report.SentenceCount)
	}
}

func TestVerifyAlignmentUnknownToken(t *testing.T) {
	v := New(model.DefaultConfig().Verifier)
	facts := []*model.Fact{fact("f1", false, 0.8, refs(1), "tok-1")}
	narrative := &model.Narrative{
		UsedTokens: []string{"tok-1", "tok-999"},
		Sentences: []model.SentenceRef{
			{Text: "Деньги переведены.", Tokens: []string{"tok-1", "tok-999"}},
		},
	}

	report := v.VerifyAlignment(facts, narrative)
	if report.OK {
		t.Fatal("report ok despite a fabricated token reference")
	}
	if want := []string{"tok-999"}; !reflect.DeepEqual(report.UnknownTokens, want) {
		t.Errorf("unknown tokens = %v, want %v", report.UnknownTokens, want)
	}
}

func TestVerifyAlignmentMissingToken(t *testing.T) {
	v := New(model.DefaultConfig().Verifier)
	facts := []*model.Fact{fact("f1", false, 0.8, refs(1), "tok-1", "tok-2")}
	narrative := &model.Narrative{
		UsedTokens: []string{"tok-1", "tok-2"},
		Sentences: []model.SentenceRef{
			{Text: "Деньги переведены.", Tokens: []string{"tok-1"}},
		},
	}

	report := v.VerifyAlignment(facts, narrative)
	if report.OK {
		t.Fatal("report ok despite a declared-but-unreferenced token")
	}
	if want := []string{"tok-2"}; !reflect.DeepEqual(report.MissingTokens, want) {
		t.Errorf("missing tokens = %v, want %v", report.MissingTokens, want)
	}
}

func TestVerifyAlignmentUndeclaredToken(t *testing.T) {
	v := New(model.DefaultConfig().Verifier)
	facts := []*model.Fact{fact("f1", false, 0.8, refs(1), "tok-1", "tok-2")}
	narrative := &model.Narrative{
		UsedTokens: []string{"tok-1"},
		Sentences: []model.SentenceRef{
			{Text: "Деньги переведены.", Tokens: []string{"tok-1", "tok-2"}},
		},
	}

	report := v.VerifyAlignment(facts, narrative)
	if report.OK {
		t.Fatal("report ok despite a sentence using an undeclared token")
	}
	if !hasIssue(report.Violations, IssueUndeclaredToken) {
		t.Errorf("violations = %+v, want %s", report.Violations, IssueUndeclaredToken)
	}
}

func TestVerifyAlignmentUngroundedSentence(t *testing.T) {
	v := New(model.DefaultConfig().Verifier)
	facts := []*model.Fact{fact("f1", false, 0.8, refs(1), "tok-1")}
	narrative := &model.Narrative{
		UsedTokens: []string{"tok-1"},
		Sentences: []model.SentenceRef{
			{Text: "Деньги переведены.", Tokens: []string{"tok-1"}},
			{Text: "Вина полностью доказана.", Tokens: nil},
		},
	}

	report := v.VerifyAlignment(facts, narrative)
	if report.OK {
		t.Fatal("report ok despite a sentence with no token grounding")
	}
	if !hasIssue(report.Violations, IssueUngroundedSentence) {
		t.Errorf("violations = %+v, want %s", report.Violations, IssueUngroundedSentence)
	}
}

func TestVerifyAlignmentNilNarrative(t *testing.T) {
	v := New(model.DefaultConfig().Verifier)
	report := v.VerifyAlignment(nil, nil)
	if report.OK {
		t.Fatal("nil narrative must not verify")
	}
}

func TestVerifyProvenanceCriticalSingleSource(t *testing.T) {
	v := New(model.DefaultConfig().Verifier)
	facts := []*model.Fact{fact("f1", true, 0.9, refs(1), "tok-1")}

	report := v.VerifyProvenance(facts)
	if report.OK {
		t.Fatal("critical fact with one source passed provenance")
	}
	if !hasIssue(report.Violations, IssueOnlyOneSource) {
		t.Errorf("violations = %+v, want %s", report.Violations, IssueOnlyOneSource)
	}
}

func TestVerifyProvenanceSamePageNotIndependent(t *testing.T) {
	v := New(model.DefaultConfig().Verifier)
	// two refs on the same (document, page) count as one source
	facts := []*model.Fact{fact("f1", true, 0.9, refs(2, 2), "tok-1")}

	report := v.VerifyProvenance(facts)
	if !hasIssue(report.Violations, IssueOnlyOneSource) {
		t.Fatalf("violations = %+v, want %s", report.Violations, IssueOnlyOneSource)
	}
}

func TestVerifyProvenanceCriticalTwoSources(t *testing.T) {
	v := New(model.DefaultConfig().Verifier)
	facts := []*model.Fact{fact("f1", true, 0.9, refs(1, 2), "tok-1")}

	report := v.VerifyProvenance(facts)
	if !report.OK {
		t.Fatalf("violations = %+v, want none", report.Violations)
	}
}

func TestVerifyProvenanceNoSources(t *testing.T) {
	v := New(model.DefaultConfig().Verifier)
	facts := []*model.Fact{fact("f1", false, 0.9, nil, "tok-1")}

	report := v.VerifyProvenance(facts)
	if !hasIssue(report.Violations, IssueNoSources) {
		t.Fatalf("violations = %+v, want %s", report.Violations, IssueNoSources)
	}
}

func TestVerifyProvenanceConfidenceFloors(t *testing.T) {
	cfg := model.VerifierConfig{
		RequireTwoSources:  true,
		CriticalConfidence: 0.60,
		DefaultConfidence:  0.20,
	}
	v := New(cfg)

	tests := []struct {
		name string
		fact *model.Fact
		want string
	}{
		{"critical below strict floor", fact("f1", true, 0.5, refs(1, 2), "tok-1"), IssueLowConfidenceCritical},
		{"ordinary below default floor", fact("f2", false, 0.1, refs(1), "tok-1"), IssueLowConfidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := v.VerifyProvenance([]*model.Fact{tt.fact})
			if !hasIssue(report.Violations, tt.want) {
				t.Errorf("violations = %+v, want %s", report.Violations, tt.want)
			}
		})
	}
}

func TestVerifyCollectsAllViolations(t *testing.T) {
	v := New(model.DefaultConfig().Verifier)
	facts := []*model.Fact{
		fact("f1", true, 0.1, refs(1), "tok-1"),
		fact("f2", false, 0.9, nil, "tok-2"),
	}

	report := v.VerifyProvenance(facts)
	if len(report.Violations) < 3 {
		t.Fatalf("violations = %+v, want only_one_source, low_confidence_critical and no_sources together", report.Violations)
	}
}
