// Package tokenize converts raw per-page text windows into typed, source-
// anchored facts. Every design decision here exists to keep a downstream
// generator from inventing facts that are not in the source documents.
package tokenize

import (
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/segment"
)

// Window is one raw text window from the upstream chunking/OCR collaborator.
type Window struct {
	DocumentID string `json:"document_id"`
	Page       int    `json:"page"`
	Text       string `json:"text"`
}

// Tokenizer extracts facts from text windows using fixed pattern families.
type Tokenizer struct {
	cfg model.TokenizerConfig
}

// New creates a tokenizer with the given policy.
func New(cfg model.TokenizerConfig) *Tokenizer {
	return &Tokenizer{cfg: cfg}
}

// Tokenize processes windows in order and returns all extracted facts.
// A malformed or oversized window is skipped; it never aborts the batch.
func (tk *Tokenizer) Tokenize(windows []Window) []*model.Fact {
	var facts []*model.Fact

	for _, w := range windows {
		text := strings.TrimSpace(w.Text)
		if w.DocumentID == "" || text == "" || w.Page < 1 {
			continue
		}

		sentences, err := segment.Split(text)
		if err != nil {
			continue
		}

		for idx, sent := range sentences {
			before := ""
			if idx > 0 {
				before = sentences[idx-1]
			}
			after := ""
			if idx+1 < len(sentences) {
				after = sentences[idx+1]
			}

			if f := tk.tokenizeSentence(w, idx, sent, before, after); f != nil {
				facts = append(facts, f)
			}
		}
	}

	return facts
}

func (tk *Tokenizer) tokenizeSentence(w Window, idx int, sent, before, after string) *model.Fact {
	sent = strings.TrimSpace(sent)
	if sent == "" {
		return nil
	}

	src := model.SourceRef{DocumentID: w.DocumentID, Page: w.Page}
	tokens := extractTokens(sent, idx, src)
	if len(tokens) == 0 {
		return nil
	}

	fact := &model.Fact{
		FactID:        model.DeterministicID("fact", w.DocumentID, strconv.Itoa(w.Page), strconv.Itoa(idx), sent),
		Text:          sent,
		Tokens:        tokens,
		SourceRefs:    []model.SourceRef{src},
		SentenceIndex: idx,
		ContextBefore: strings.TrimSpace(before),
		ContextAfter:  strings.TrimSpace(after),
	}

	// Interviewer questions pollute the evidence set unless they carry
	// money/date/entity content themselves.
	if isQuestion(sent) && !hasEvidentiaryToken(fact) {
		return nil
	}

	// Subjective commentary without a verifiable referent is not evidence.
	if isSubjective(sent) && !fact.HasTokenType(verifiableReferentTypes...) {
		return nil
	}

	fact.Role = detectRole(fact, sent, before)
	fact.ArticleHints = articleHints(sent)
	fact.Confidence = confidence(fact)

	if fact.Role == model.RoleSuspectAction && fact.HasTokenType(model.TokenAmount) {
		// dominant-signal override: a money action by the acting party is
		// always fully trusted as an extraction
		fact.Confidence = 1.0
	}
	if fact.Confidence < tk.cfg.MinConfidence {
		return nil
	}

	fact.Critical = isCritical(fact)
	return fact
}

// extractTokens runs every pattern family over the sentence. Duplicate
// (type, value) pairs inside one sentence collapse to a single token.
func extractTokens(sent string, idx int, src model.SourceRef) []model.Token {
	var tokens []model.Token
	seen := make(map[string]bool)
	low := strings.ToLower(sent)

	add := func(tp model.TokenType, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		key := string(tp) + "\x1f" + strings.ToLower(value)
		if seen[key] {
			return
		}
		seen[key] = true
		tokens = append(tokens, model.Token{
			TokenID: model.DeterministicID("tok", src.DocumentID, strconv.Itoa(src.Page), strconv.Itoa(idx), string(tp), strings.ToLower(value)),
			Type:    tp,
			Value:   value,
			Source:  src,
		})
	}

	for _, m := range amountPattern.FindAllString(sent, -1) {
		add(model.TokenAmount, m)
	}
	for _, pat := range datePatterns {
		for _, m := range pat.FindAllString(sent, -1) {
			add(model.TokenDate, m)
		}
	}

	for _, m := range personPattern.FindAllStringSubmatch(sent, -1) {
		if name := acceptPerson(m[1:]); name != "" {
			add(model.TokenPerson, name)
		}
	}
	for _, m := range personInitialsPattern.FindAllStringSubmatch(sent, -1) {
		if name := acceptPerson(m[1:2]); name != "" {
			add(model.TokenPerson, name+" "+m[2])
		}
	}
	for _, m := range personActorPattern.FindAllStringSubmatch(sent, -1) {
		if name := acceptPerson(m[1:2]); name != "" {
			add(model.TokenPerson, name)
		}
	}

	for _, m := range phonePattern.FindAllString(sent, -1) {
		add(model.TokenPhone, m)
	}
	for _, m := range ibanPattern.FindAllString(sent, -1) {
		add(model.TokenAccount, m)
	}
	for _, m := range cardPattern.FindAllString(sent, -1) {
		if digits := countDigits(m); digits >= 12 {
			add(model.TokenAccount, strings.TrimSpace(m))
		}
	}
	for _, m := range cryptoAddrPattern.FindAllString(sent, -1) {
		add(model.TokenCryptoAddress, m)
	}
	for _, m := range articleRefPattern.FindAllString(sent, -1) {
		add(model.TokenArticleRef, m)
	}

	for _, m := range namedEntityPattern.FindAllStringSubmatch(sent, -1) {
		add(entityType(m[1]), m[2])
	}
	for _, m := range addressPattern.FindAllString(sent, -1) {
		add(model.TokenAddress, strings.TrimSpace(m))
	}

	for _, kw := range channelKeywords {
		if strings.Contains(low, kw) {
			add(model.TokenChannel, kw)
		}
	}
	for _, fam := range keywordFamilies {
		for _, kw := range fam.Words {
			if strings.Contains(low, kw) {
				add(fam.Type, kw)
			}
		}
	}
	for _, rk := range roleKeywords {
		if strings.Contains(low, rk.Stem) {
			add(model.TokenRoleLabel, rk.Label)
		}
	}

	return tokens
}

// acceptPerson joins non-empty name components and applies the stop-list to
// each component. One noise word disqualifies the whole candidate.
func acceptPerson(parts []string) string {
	var kept []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if personStopwords[strings.ToLower(p)] {
			return ""
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, " ")
}

func entityType(trigger string) model.TokenType {
	low := strings.ToLower(trigger)
	for _, et := range namedEntityTypes {
		if strings.HasPrefix(low, et.Stem) {
			return et.Type
		}
	}
	return model.TokenOrganization
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func isQuestion(sent string) bool {
	trimmed := strings.TrimSpace(sent)
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	low := strings.ToLower(trimmed)
	for _, p := range questionPrefixes {
		if strings.HasPrefix(low, p) {
			return true
		}
	}
	return false
}

func isSubjective(sent string) bool {
	low := strings.ToLower(strings.TrimSpace(sent))
	for _, p := range subjectivePrefixes {
		if strings.HasPrefix(low, p) {
			return true
		}
	}
	return false
}

func hasEvidentiaryToken(f *model.Fact) bool {
	for _, t := range f.Tokens {
		if evidentiaryTypes[t.Type] {
			return true
		}
	}
	return false
}

func suspectContext(low, beforeLow string) bool {
	for _, p := range suspectVerbPhrases {
		if strings.Contains(low, p) {
			return true
		}
	}
	for _, m := range suspectContextMarkers {
		if strings.Contains(low, m) || strings.Contains(beforeLow, m) {
			return true
		}
	}
	return false
}

func victimContext(f *model.Fact, low string) bool {
	if strings.Contains(low, "потерпевш") {
		return true
	}
	for _, v := range f.TokensOfType(model.TokenRoleLabel) {
		if v == "victim" {
			return true
		}
	}
	return false
}

// detectRole is the deterministic decision table: evaluated in priority
// order, first match wins.
func detectRole(f *model.Fact, sent, before string) model.Role {
	types := f.TokenTypes()
	low := strings.ToLower(sent)
	beforeLow := strings.ToLower(before)

	victim := victimContext(f, low)

	switch {
	case types[model.TokenAmount] && !victim && suspectContext(low, beforeLow):
		return model.RoleSuspectAction
	case types[model.TokenFraudFlag] && types[model.TokenAmount]:
		return model.RoleFraudAction
	case types[model.TokenFraudFlag]:
		return model.RoleFraudEvent
	case types[model.TokenInvestFlag] && (types[model.TokenAmount] || types[model.TokenEconomicFlag]):
		return model.RoleInvestmentEvent
	case types[model.TokenInvestFlag]:
		return model.RoleInvestmentContext
	case types[model.TokenSchemeFlag]:
		return model.RoleSchemeMarker
	case types[model.TokenOrganization] || types[model.TokenProjectName] || types[model.TokenPlatformName]:
		return model.RoleEntityReference
	case types[model.TokenAdminFlag]:
		return model.RoleAdminAction
	case types[model.TokenCryptoFlag] || types[model.TokenCryptoAddress]:
		return model.RoleCryptoOperation
	case (types[model.TokenChannel] || types[model.TokenAccount]) && !victim:
		return model.RoleDigitalTransfer
	case types[model.TokenEconomicFlag] && !victim:
		return model.RoleEconomicAction
	case victim && (types[model.TokenAmount] || types[model.TokenEconomicFlag] || types[model.TokenInvestFlag]):
		return model.RoleVictimLoss
	case victim:
		return model.RoleVictimStatement
	case types[model.TokenRoleLabel]:
		return model.RoleRoleStatement
	default:
		return model.RoleGenericFact
	}
}

var articleHintStems = []struct {
	Article string
	Stems   []string
}{
	{"190", []string{"мошеннич", "обман"}},
	{"217", []string{"инвестиц", "пирамид", "вклад"}},
	{"189", []string{"присвоил", "растрата"}},
	{"218", []string{"легализац", "отмыван"}},
	{"245", []string{"налог", "уклонение"}},
}

func articleHints(sent string) []string {
	low := strings.ToLower(sent)
	var hints []string
	for _, h := range articleHintStems {
		for _, stem := range h.Stems {
			if strings.Contains(low, stem) {
				hints = append(hints, h.Article)
				break
			}
		}
	}
	return hints
}

// confidence is a weighted sum over present tokens with combination bonuses
// and a ceiling of 1.0.
func confidence(f *model.Fact) float64 {
	score := 0.0
	for _, t := range f.Tokens {
		w, ok := confidenceWeights[t.Type]
		if !ok {
			w = defaultConfidenceWeight
		}
		score += w
	}

	types := f.TokenTypes()
	if types[model.TokenFraudFlag] && types[model.TokenAmount] {
		score += 0.25
	}
	if types[model.TokenInvestFlag] && types[model.TokenAmount] {
		score += 0.20
	}
	if (types[model.TokenCryptoAddress] || types[model.TokenCryptoFlag]) && types[model.TokenAmount] {
		score += 0.25
	}

	if score > 1.0 {
		score = 1.0
	}
	return math.Round(score*1000) / 1000
}

// isCritical marks facts whose provenance must clear the stricter policy.
func isCritical(f *model.Fact) bool {
	switch f.Role {
	case model.RoleSuspectAction, model.RoleFraudAction:
		return f.HasTokenType(model.TokenAmount)
	}
	return false
}
