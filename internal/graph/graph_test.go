package graph

import (
	"reflect"
	"testing"

	"github.com/ppiankov/evidentia/internal/model"
)

func fact(id, text string, idx int, role model.Role, src model.SourceRef, tokens ...model.Token) *model.Fact {
	return &model.Fact{
		FactID:        id,
		Text:          text,
		Role:          role,
		Tokens:        tokens,
		SourceRefs:    []model.SourceRef{src},
		SentenceIndex: idx,
		Confidence:    0.5,
	}
}

func tok(id string, typ model.TokenType, value string) model.Token {
	return model.Token{TokenID: id, Type: typ, Value: value}
}

func TestMergeOverlappingWindows(t *testing.T) {
	text := "Иванов получил 500 000 тенге."
	a := fact("f1", text, 4, model.RoleSuspectAction,
		model.SourceRef{DocumentID: "doc-1", Page: 2},
		tok("t1", model.TokenAmount, "500 000 тенге"))
	b := fact("f2", text, 4, model.RoleSuspectAction,
		model.SourceRef{DocumentID: "doc-1", Page: 3},
		tok("t2", model.TokenAmount, "500 000 тенге"))

	out := New().Merge([]*model.Fact{a, b})
	if len(out) != 1 {
		t.Fatalf("got %d facts, want 1", len(out))
	}
	if len(out[0].SourceRefs) != 2 {
		t.Errorf("source refs = %v, want two entries", out[0].SourceRefs)
	}
	if len(out[0].Tokens) != 1 {
		t.Errorf("tokens = %v, want the duplicate amount collapsed", out[0].Tokens)
	}
}

func TestMergeKeepsDistinctFactsApart(t *testing.T) {
	src := model.SourceRef{DocumentID: "doc-1", Page: 1}
	a := fact("f1", "Иванов получил 500 000 тенге.", 0, model.RoleSuspectAction, src,
		tok("t1", model.TokenAmount, "500 000 тенге"))
	b := fact("f2", "Иванов получил 700 000 тенге.", 1, model.RoleSuspectAction, src,
		tok("t2", model.TokenAmount, "700 000 тенге"))
	c := fact("f3", "Иванов получил 500 000 тенге.", 0, model.RoleEconomicAction, src,
		tok("t3", model.TokenAmount, "500 000 тенге"))

	out := New().Merge([]*model.Fact{a, b, c})
	if len(out) != 3 {
		t.Fatalf("got %d facts, want 3: different amounts and roles must not merge", len(out))
	}
}

func TestMergeUnionsSignals(t *testing.T) {
	src1 := model.SourceRef{DocumentID: "d", Page: 1}
	src2 := model.SourceRef{DocumentID: "d", Page: 2}
	a := fact("f1", "Он перевел 100 000 тенге.", 2, model.RoleEconomicAction, src1,
		tok("t1", model.TokenAmount, "100 000 тенге"))
	a.Confidence = 0.4
	a.ArticleHints = []string{"190"}
	b := fact("f2", "Он перевел 100 000 тенге.", 2, model.RoleEconomicAction, src2,
		tok("t2", model.TokenAmount, "100 000 тенге"),
		tok("t3", model.TokenDate, "12.03.2024"))
	b.Confidence = 0.7
	b.Critical = true
	b.ArticleHints = []string{"217"}

	out := New().Merge([]*model.Fact{a, b})
	if len(out) != 1 {
		t.Fatalf("got %d facts, want 1", len(out))
	}
	m := out[0]
	if m.Confidence != 0.7 {
		t.Errorf("confidence = %v, want the maximum 0.7", m.Confidence)
	}
	if !m.Critical {
		t.Error("critical flag must survive the merge")
	}
	if len(m.Tokens) != 2 {
		t.Errorf("tokens = %v, want amount plus date", m.Tokens)
	}
	if want := []string{"190", "217"}; !reflect.DeepEqual(m.ArticleHints, want) {
		t.Errorf("article hints = %v, want %v", m.ArticleHints, want)
	}
}

func TestMergeIdempotent(t *testing.T) {
	src := model.SourceRef{DocumentID: "d", Page: 1}
	facts := []*model.Fact{
		fact("f1", "Он перевел 100 000 тенге.", 0, model.RoleEconomicAction, src,
			tok("t1", model.TokenAmount, "100 000 тенге")),
		fact("f2", "Он перевел 100 000 тенге.", 0, model.RoleEconomicAction,
			model.SourceRef{DocumentID: "d", Page: 2},
			tok("t2", model.TokenAmount, "100 000 тенге")),
		fact("f3", "Деньги ушли на кошелек.", 1, model.RoleCryptoOperation, src,
			tok("t4", model.TokenCryptoFlag, "кошелек")),
	}

	g := New()
	once := g.Merge(facts)
	twice := g.Merge(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatal("merging an already-merged set changed it")
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	src := model.SourceRef{DocumentID: "d", Page: 1}
	a := fact("f1", "Он перевел 100 000 тенге.", 0, model.RoleEconomicAction, src,
		tok("t1", model.TokenAmount, "100 000 тенге"))
	b := fact("f2", "Он перевел 100 000 тенге.", 0, model.RoleEconomicAction,
		model.SourceRef{DocumentID: "d", Page: 2},
		tok("t2", model.TokenAmount, "100 000 тенге"))

	New().Merge([]*model.Fact{a, b})
	if len(a.SourceRefs) != 1 || len(a.Tokens) != 1 {
		t.Fatalf("input fact was mutated: %+v", a)
	}
}
