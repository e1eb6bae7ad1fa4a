// Package classify scores routed facts against per-statute keyword profiles.
// Its output is advisory: it feeds the narrative prompt as a hint and must
// never be the gate that suppresses a fact.
package classify

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/evidentia/internal/model"
)

// candidateArticles is the fixed, ordered set of statutes under
// consideration.
var candidateArticles = []string{"189", "190", "214", "216", "217", "218", "301-1"}

// articleProfiles hold the keyword vocabulary per statute. Core keywords
// weigh more than contextual ones.
var articleProfiles = map[string]struct {
	Core    []string
	Context []string
}{
	"190": {
		Core:    []string{"мошеннич", "обман", "ввел в заблужден", "заблужден", "ложн"},
		Context: []string{"интернет", "онлайн", "платформ", "сайт"},
	},
	"189": {
		Core:    []string{"вверен", "растрата", "присво", "подотчет", "материально ответ"},
		Context: []string{"имущество было передано"},
	},
	"214": {
		Core:    []string{"без регистрации", "без лицензии", "предпринимательск"},
		Context: []string{"получение дохода", "подакциз"},
	},
	"216": {
		Core:    []string{"счет-фактур", "фиктив", "без фактического"},
		Context: []string{"обналич", "наличн"},
	},
	"217": {
		Core:    []string{"финансовая пирамида", "инвестиционная пирамида", "пирамид"},
		Context: []string{"вклад", "вложен", "инвестиц"},
	},
	"218": {
		Core:    []string{"легализац", "отмыван", "скрыть происхождение"},
		Context: []string{"подставные лица", "финансовый поток"},
	},
	"301-1": {
		Core:    []string{"вейп", "сигарет", "некурительн"},
		Context: []string{"продажа", "оптовая партия"},
	},
}

const (
	coreKeywordWeight    = 1.5
	contextKeywordWeight = 0.5
	amountBonus          = 0.5
	transferBonus        = 0.5
)

// transferTypes strengthen economic statutes when money movement is visible.
var transferTypes = []model.TokenType{
	model.TokenChannel, model.TokenAccount, model.TokenCryptoAddress,
}

// Classifier scores facts against statute profiles.
type Classifier struct {
	cfg model.ClassifierConfig
}

// New creates a classifier with the given thresholds.
func New(cfg model.ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify computes per-article scores with full reasoning trails. The top
// article becomes primary only above the primary threshold; every other
// article above the secondary threshold is reported as secondary.
func (c *Classifier) Classify(facts []*model.Fact) *model.ClassificationResult {
	result := &model.ClassificationResult{
		Secondary: []string{},
		Scores:    make(map[string]model.ArticleScore, len(candidateArticles)),
	}
	if len(facts) == 0 {
		return result
	}

	totals := make(map[string]float64, len(candidateArticles))
	reasons := make(map[string][]string, len(candidateArticles))

	for _, f := range facts {
		for _, art := range candidateArticles {
			score, why := scoreArticle(art, f)
			if score <= 0 {
				continue
			}
			totals[art] += score
			for _, msg := range why {
				reasons[art] = append(reasons[art], fmt.Sprintf("[%s] %s", f.FactID, msg))
			}
		}
	}

	for _, art := range candidateArticles {
		result.Scores[art] = model.ArticleScore{
			Score:   math.Round(totals[art]*1000) / 1000,
			Reasons: reasons[art],
		}
	}

	primary := ""
	maxScore := 0.0
	for _, art := range candidateArticles {
		if totals[art] > maxScore {
			maxScore = totals[art]
			primary = art
		}
	}
	if primary != "" && maxScore >= c.cfg.PrimaryThreshold {
		result.Primary = primary
	} else {
		primary = ""
	}

	var secondary []string
	for _, art := range candidateArticles {
		if art == primary {
			continue
		}
		if totals[art] >= c.cfg.SecondaryThreshold {
			secondary = append(secondary, art)
		}
	}
	sort.SliceStable(secondary, func(i, j int) bool {
		si, sj := totals[secondary[i]], totals[secondary[j]]
		if si != sj {
			return si > sj
		}
		return secondary[i] < secondary[j]
	})
	if secondary != nil {
		result.Secondary = secondary
	}

	return result
}

// scoreArticle scores one fact against one statute profile.
func scoreArticle(article string, f *model.Fact) (float64, []string) {
	profile, ok := articleProfiles[article]
	if !ok {
		return 0, nil
	}

	text := factText(f)
	score := 0.0
	var why []string

	for _, kw := range profile.Core {
		if strings.Contains(text, kw) {
			score += coreKeywordWeight
			why = append(why, "core_keyword: "+kw)
		}
	}
	for _, kw := range profile.Context {
		if strings.Contains(text, kw) {
			score += contextKeywordWeight
			why = append(why, "context_keyword: "+kw)
		}
	}

	// bonuses amplify keyword evidence, they never create it
	if score == 0 {
		return 0, nil
	}

	if f.HasTokenType(model.TokenAmount) {
		score += amountBonus
		why = append(why, "amount present")
	}
	if f.HasTokenType(transferTypes...) {
		score += transferBonus
		why = append(why, "transfer token present")
	}

	if article == "190" && f.Role == model.RoleSuspectAction {
		score += 0.5
		why = append(why, "role: suspect action")
	}

	return score, why
}

// factText is the lowercased sentence plus all token literals, so keyword
// profiles see both the narrative wording and the extracted values.
func factText(f *model.Fact) string {
	parts := make([]string, 0, len(f.Tokens)+1)
	parts = append(parts, f.Text)
	for _, t := range f.Tokens {
		parts = append(parts, t.Value)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
