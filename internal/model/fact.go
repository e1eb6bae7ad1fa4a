package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SourceRef identifies where a token or fact was observed.
// Provenance equality is by (DocumentID, Page); the char span is advisory.
type SourceRef struct {
	DocumentID string `json:"document_id"`
	Page       int    `json:"page"`
	SpanStart  int    `json:"span_start,omitempty"`
	SpanEnd    int    `json:"span_end,omitempty"`
}

// Key returns the provenance identity used for source counting and merging.
func (s SourceRef) Key() string {
	return s.DocumentID + "#" + strconv.Itoa(s.Page)
}

// TokenType is the closed set of extractable token types.
type TokenType string

const (
	TokenAmount        TokenType = "amount"
	TokenDate          TokenType = "date"
	TokenPerson        TokenType = "person"
	TokenAddress       TokenType = "address"
	TokenAccount       TokenType = "account"
	TokenCryptoAddress TokenType = "crypto_address"
	TokenOrganization  TokenType = "organization"
	TokenProjectName   TokenType = "project_name"
	TokenPlatformName  TokenType = "platform_name"
	TokenChannel       TokenType = "channel"
	TokenPhone         TokenType = "phone"
	TokenArticleRef    TokenType = "article_reference"
	TokenRoleLabel     TokenType = "role_label"

	// Keyword-flag families. Each marks the presence of a vocabulary hit
	// rather than a literal entity.
	TokenFraudFlag      TokenType = "fraud_flag"
	TokenInvestFlag     TokenType = "invest_flag"
	TokenEconomicFlag   TokenType = "economic_flag"
	TokenAdminFlag      TokenType = "admin_flag"
	TokenSchemeFlag     TokenType = "scheme_flag"
	TokenCryptoFlag     TokenType = "crypto_flag"
	TokenProcessualFlag TokenType = "processual_flag"
)

// IsKeywordFlag reports whether the type is a keyword-flag family.
func (t TokenType) IsKeywordFlag() bool {
	switch t {
	case TokenFraudFlag, TokenInvestFlag, TokenEconomicFlag,
		TokenAdminFlag, TokenSchemeFlag, TokenCryptoFlag, TokenProcessualFlag:
		return true
	}
	return false
}

// Token is a single typed, literal piece of extracted information.
// Tokens are immutable once created.
type Token struct {
	TokenID string    `json:"token_id"`
	Type    TokenType `json:"type"`
	Value   string    `json:"value"`
	Source  SourceRef `json:"source"`
}

// Role classifies what kind of evidentiary statement a fact is.
type Role string

const (
	RoleSuspectAction     Role = "suspect_action"
	RoleFraudAction       Role = "fraud_action"
	RoleFraudEvent        Role = "fraud_event"
	RoleInvestmentEvent   Role = "investment_event"
	RoleInvestmentContext Role = "investment_context"
	RoleSchemeMarker      Role = "scheme_marker"
	RoleEntityReference   Role = "entity_reference"
	RoleAdminAction       Role = "admin_action"
	RoleCryptoOperation   Role = "crypto_operation"
	RoleDigitalTransfer   Role = "digital_transfer"
	RoleEconomicAction    Role = "economic_action"
	RoleVictimLoss        Role = "victim_loss"
	RoleVictimStatement   Role = "victim_statement"
	RoleRoleStatement     Role = "role_statement"
	RoleGenericFact       Role = "generic_fact"
)

// RoutingGroup is the priority tier assigned by the router.
type RoutingGroup string

const (
	GroupPrimary   RoutingGroup = "primary"
	GroupSecondary RoutingGroup = "secondary"
	GroupReserve   RoutingGroup = "reserve"
)

// Fact is one evidentiary statement extracted from a sentence, with typed
// tokens and full source provenance. Created by the tokenizer, merged by the
// graph, filtered and routed downstream; read-only from the classifier on.
type Fact struct {
	FactID        string       `json:"fact_id"`
	Text          string       `json:"text"`
	Role          Role         `json:"role"`
	Tokens        []Token      `json:"tokens"`
	SourceRefs    []SourceRef  `json:"source_refs"`
	SentenceIndex int          `json:"sentence_index"`
	ContextBefore string       `json:"context_before,omitempty"`
	ContextAfter  string       `json:"context_after,omitempty"`
	ArticleHints  []string     `json:"article_hints,omitempty"`
	Confidence    float64      `json:"confidence"`
	Critical      bool         `json:"critical,omitempty"`
	RoutingGroup  RoutingGroup `json:"routing_group,omitempty"`
}

// NewID returns a fresh random identifier (audit runs, ad-hoc callers).
func NewID() string {
	return uuid.NewString()
}

// DeterministicID derives an identifier from content so that re-running the
// pipeline on the same input reproduces the same fact and token ids.
func DeterministicID(prefix string, parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return prefix + "-" + hex.EncodeToString(h[:8])
}

// TokenIDs returns the ids of all tokens owned by the fact.
func (f *Fact) TokenIDs() []string {
	ids := make([]string, 0, len(f.Tokens))
	for _, t := range f.Tokens {
		ids = append(ids, t.TokenID)
	}
	return ids
}

// TokenTypes returns the set of token types present in the fact.
func (f *Fact) TokenTypes() map[TokenType]bool {
	types := make(map[TokenType]bool, len(f.Tokens))
	for _, t := range f.Tokens {
		types[t.Type] = true
	}
	return types
}

// HasTokenType reports whether any owned token has one of the given types.
func (f *Fact) HasTokenType(types ...TokenType) bool {
	for _, t := range f.Tokens {
		for _, want := range types {
			if t.Type == want {
				return true
			}
		}
	}
	return false
}

// TokensOfType returns the values of all tokens of the given type.
func (f *Fact) TokensOfType(tp TokenType) []string {
	var values []string
	for _, t := range f.Tokens {
		if t.Type == tp {
			values = append(values, t.Value)
		}
	}
	return values
}

// Clone returns a deep copy. Stages that annotate facts work on copies so
// the previous stage's output stays immutable.
func (f *Fact) Clone() *Fact {
	c := *f
	c.Tokens = append([]Token(nil), f.Tokens...)
	c.SourceRefs = append([]SourceRef(nil), f.SourceRefs...)
	c.ArticleHints = append([]string(nil), f.ArticleHints...)
	return &c
}

// MergeKey is the structural identity used for deduplication: the sorted
// (type, value) token set, the whitespace-normalized text, and the sentence
// index. Facts at different sentence indexes are never the same observation.
func (f *Fact) MergeKey() string {
	pairs := make([]string, 0, len(f.Tokens))
	for _, t := range f.Tokens {
		pairs = append(pairs, string(t.Type)+"\x1f"+strings.ToLower(t.Value))
	}
	sort.Strings(pairs)

	norm := strings.Join(strings.Fields(strings.ToLower(f.Text)), " ")

	return strings.Join(pairs, "\x1e") + "\x1d" + norm + "\x1d" + strconv.Itoa(f.SentenceIndex)
}
