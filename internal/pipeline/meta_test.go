package pipeline

import (
	"math"
	"reflect"
	"testing"

	"github.com/ppiankov/evidentia/internal/model"
)

func metaFact(role model.Role, tokens ...model.Token) *model.Fact {
	return &model.Fact{
		FactID: model.DeterministicID("f", string(role), tokens[0].Value),
		Role:   role,
		Tokens: tokens,
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"500 000 тенге", 500000, true},
		{"1 000,50 тенге", 1000.50, true},
		{"1.234.567", 1234567, true},
		{"12,345", 12345, true},
		{"808500.25", 808500.25, true},
		{"тенге", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseAmount(tt.in)
		if ok != tt.ok {
			t.Errorf("parseAmount(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("parseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildMeta(t *testing.T) {
	facts := []*model.Fact{
		metaFact(model.RoleSuspectAction,
			model.Token{TokenID: "t1", Type: model.TokenPerson, Value: "Иванов И.И."},
			model.Token{TokenID: "t2", Type: model.TokenAmount, Value: "500 000 тенге"}),
		metaFact(model.RoleVictimLoss,
			model.Token{TokenID: "t3", Type: model.TokenPerson, Value: "Петрова А.С."},
			model.Token{TokenID: "t4", Type: model.TokenAmount, Value: "300 000 тенге"}),
		metaFact(model.RoleInvestmentEvent,
			model.Token{TokenID: "t5", Type: model.TokenProjectName, Value: "Gold Invest"}),
		metaFact(model.RoleEntityReference,
			model.Token{TokenID: "t6", Type: model.TokenPlatformName, Value: "TradeX"},
			model.Token{TokenID: "t7", Type: model.TokenOrganization, Value: "ТОО Ромашка"}),
		// a person on a neutral role belongs to neither suspects nor victims
		metaFact(model.RoleGenericFact,
			model.Token{TokenID: "t8", Type: model.TokenPerson, Value: "Сидоров К.К."}),
	}

	meta := BuildMeta(facts)

	if !reflect.DeepEqual(meta.Suspects, []string{"Иванов И.И."}) {
		t.Errorf("suspects = %v", meta.Suspects)
	}
	if !reflect.DeepEqual(meta.Victims, []string{"Петрова А.С."}) {
		t.Errorf("victims = %v", meta.Victims)
	}
	if !reflect.DeepEqual(meta.Projects, []string{"Gold Invest", "TradeX"}) {
		t.Errorf("projects = %v (platform names should fold in)", meta.Projects)
	}
	if !reflect.DeepEqual(meta.Organizations, []string{"ТОО Ромашка"}) {
		t.Errorf("organizations = %v", meta.Organizations)
	}

	if meta.Amounts.Count != 2 {
		t.Errorf("amount count = %d, want 2", meta.Amounts.Count)
	}
	if math.Abs(meta.Amounts.Total-800000) > 1e-9 {
		t.Errorf("amount total = %v, want 800000", meta.Amounts.Total)
	}
	if math.Abs(meta.Amounts.Max-500000) > 1e-9 {
		t.Errorf("amount max = %v, want 500000", meta.Amounts.Max)
	}
}

func TestBuildMetaEmpty(t *testing.T) {
	meta := BuildMeta(nil)
	if meta.Projects != nil || meta.Suspects != nil || meta.Victims != nil || meta.Organizations != nil {
		t.Errorf("empty input produced names: %+v", meta)
	}
	if meta.Amounts.Count != 0 {
		t.Errorf("empty input produced amount stats: %+v", meta.Amounts)
	}
}
