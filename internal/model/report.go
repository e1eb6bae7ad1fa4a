package model

// ArticleScore is the scoring detail for one candidate statute.
type ArticleScore struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// ClassificationResult is the statute classifier's advisory output. It is
// recomputed on demand and never mutated in place.
type ClassificationResult struct {
	Primary   string                  `json:"primary,omitempty"`
	Secondary []string                `json:"secondary"`
	Scores    map[string]ArticleScore `json:"scores"`
}

// SentenceRef is one generated narrative sentence annotated with the token
// ids it claims to be grounded in.
type SentenceRef struct {
	Text   string   `json:"text"`
	Tokens []string `json:"tokens"`
}

// Narrative is the contract a narrative generator must fulfil: the text plus
// the sentence-to-token map and the declared used-token set. A response
// without the sentence map is unverifiable and must be rejected by the
// caller before it reaches users.
type Narrative struct {
	Text       string        `json:"text"`
	UsedTokens []string      `json:"used_tokens"`
	Sentences  []SentenceRef `json:"sentences"`
}

// Violation is a single alignment or provenance policy failure. Violations
// are collected, never thrown.
type Violation struct {
	Issue     string  `json:"issue"`
	FactID    string  `json:"fact_id,omitempty"`
	Token     string  `json:"token,omitempty"`
	Sentence  int     `json:"sentence,omitempty"`
	Text      string  `json:"text,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

// AlignmentReport is the verifier's verdict on a generated narrative.
// UnknownTokens are ids claimed as used but present in no fact; MissingTokens
// are ids declared used but referenced by no sentence.
type AlignmentReport struct {
	OK            bool        `json:"ok"`
	UnknownTokens []string    `json:"unknown_tokens"`
	MissingTokens []string    `json:"missing_tokens"`
	SentenceCount int         `json:"sentence_count"`
	Violations    []Violation `json:"violations,omitempty"`
}

// ProvenanceReport is the per-fact source/confidence policy verdict.
type ProvenanceReport struct {
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations,omitempty"`
}

// AmountStats aggregates amount tokens across the routed fact set.
type AmountStats struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
	Max   float64 `json:"max"`
}

// Meta is phrasing context for the narrative generator. It must never be
// treated as additional evidentiary tokens.
type Meta struct {
	Projects      []string    `json:"projects,omitempty"`
	Organizations []string    `json:"organizations,omitempty"`
	Suspects      []string    `json:"suspects,omitempty"`
	Victims       []string    `json:"victims,omitempty"`
	Amounts       AmountStats `json:"amounts"`
}
