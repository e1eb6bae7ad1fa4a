// Package filter removes procedural boilerplate from the merged fact set
// and caps the surviving facts by an additive importance score.
package filter

import (
	"sort"
	"strings"

	"github.com/ppiankov/evidentia/internal/model"
)

// proceduralPhrases are rights advisories and signature-block lines that
// carry no evidentiary weight on their own.
var proceduralPhrases = []string{
	"разъяснены права",
	"ему разъяснены права",
	"ей разъяснены права",
	"данное постановление может быть обжаловано",
	"ознакомлен под роспись",
	"ознакомлена под роспись",
	"предупрежден об ответственности",
	"предупреждена об ответственности",
	"уведомлен об уголовной ответственности",
	"уведомлена об уголовной ответственности",
	"язык судопроизводства",
}

// evidentiaryOverrides always rescue a procedural-phrase match: a rights
// advisory that also names money or an account is still evidence.
var evidentiaryOverrides = map[model.TokenType]bool{
	model.TokenAmount:        true,
	model.TokenFraudFlag:     true,
	model.TokenInvestFlag:    true,
	model.TokenSchemeFlag:    true,
	model.TokenEconomicFlag:  true,
	model.TokenAdminFlag:     true,
	model.TokenCryptoFlag:    true,
	model.TokenCryptoAddress: true,
	model.TokenChannel:       true,
	model.TokenAccount:       true,
	model.TokenPerson:        true,
	model.TokenDate:          true,
	model.TokenRoleLabel:     true,
	model.TokenArticleRef:    true,
}

// roleScores is the base importance per role.
var roleScores = map[model.Role]int{
	model.RoleFraudAction:       100,
	model.RoleFraudEvent:        95,
	model.RoleSuspectAction:     90,
	model.RoleVictimLoss:        80,
	model.RoleSchemeMarker:      80,
	model.RoleInvestmentEvent:   75,
	model.RoleCryptoOperation:   75,
	model.RoleEconomicAction:    70,
	model.RoleDigitalTransfer:   70,
	model.RoleInvestmentContext: 65,
	model.RoleEntityReference:   60,
	model.RoleAdminAction:       60,
}

const unclassifiedRoleScore = 10

// tokenScores is the per-token-type addition to the importance score.
var tokenScores = map[model.TokenType]int{
	model.TokenAmount:        15,
	model.TokenFraudFlag:     20,
	model.TokenInvestFlag:    15,
	model.TokenCryptoAddress: 18,
	model.TokenCryptoFlag:    16,
	model.TokenSchemeFlag:    15,
	model.TokenEconomicFlag:  12,
	model.TokenChannel:       10,
	model.TokenAccount:       10,
	model.TokenProjectName:   10,
	model.TokenPlatformName:  10,
	model.TokenOrganization:  8,
	model.TokenAdminFlag:     8,
	model.TokenDate:          5,
	model.TokenRoleLabel:     5,
	model.TokenPerson:        3,
}

const unknownTokenScore = 1

const confidenceBonus = 10

// Filter scores and prunes merged facts.
type Filter struct {
	cfg model.FilterConfig
}

// New creates a filter with the given policy.
func New(cfg model.FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Apply removes pure procedural facts, sorts the rest by importance and
// truncates to the configured maximum. If everything matched procedural
// phrases the original list is returned capped: a noisy evidence set beats
// an empty one.
func (fl *Filter) Apply(facts []*model.Fact) []*model.Fact {
	if len(facts) == 0 {
		return []*model.Fact{}
	}

	kept := make([]*model.Fact, 0, len(facts))
	for _, f := range facts {
		if !fl.isPureProcedural(f) {
			kept = append(kept, f.Clone())
		}
	}

	if len(kept) == 0 {
		kept = make([]*model.Fact, 0, len(facts))
		for _, f := range facts {
			kept = append(kept, f.Clone())
		}
		return truncate(kept, fl.cfg.MaxFacts)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		si, sj := fl.Score(kept[i]), fl.Score(kept[j])
		if si != sj {
			return si > sj
		}
		return kept[i].FactID < kept[j].FactID
	})

	return truncate(kept, fl.cfg.MaxFacts)
}

// isPureProcedural reports whether the fact is boilerplate with no
// evidentiary token to rescue it.
func (fl *Filter) isPureProcedural(f *model.Fact) bool {
	text := strings.ToLower(strings.TrimSpace(f.Text))
	for _, phrase := range proceduralPhrases {
		if !strings.Contains(text, phrase) {
			continue
		}
		for _, t := range f.Tokens {
			if evidentiaryOverrides[t.Type] {
				return false
			}
		}
		return true
	}
	return false
}

// Score is the additive importance rubric: base points from the role, points
// per token type present, and a flat bonus for confident extractions.
func (fl *Filter) Score(f *model.Fact) int {
	score, ok := roleScores[f.Role]
	if !ok {
		score = unclassifiedRoleScore
	}

	for tp := range f.TokenTypes() {
		if pts, ok := tokenScores[tp]; ok {
			score += pts
		} else {
			score += unknownTokenScore
		}
	}

	if f.Confidence > fl.cfg.ConfidenceBonusFrom {
		score += confidenceBonus
	}
	return score
}

func truncate(facts []*model.Fact, max int) []*model.Fact {
	if max > 0 && len(facts) > max {
		return facts[:max]
	}
	return facts
}
