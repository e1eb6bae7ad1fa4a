// Package verify checks generated narratives against the evidentiary record.
// Every claimed token must exist, every sentence must be grounded, and fact
// provenance must meet source and confidence policy. The verifier only
// reports; the caller decides whether to reject or regenerate.
package verify

import (
	"sort"

	"github.com/ppiankov/evidentia/internal/model"
)

const (
	IssueUnknownToken          = "unknown_token"
	IssueEmptySentence         = "empty_sentence"
	IssueUngroundedSentence    = "ungrounded_sentence"
	IssueSentenceUnknownToken  = "sentence_unknown_token"
	IssueTokenNotInSentences   = "token_not_in_sentences"
	IssueUndeclaredToken       = "undeclared_token"
	IssueNoSources             = "no_sources"
	IssueOnlyOneSource         = "only_one_source"
	IssueLowConfidenceCritical = "low_confidence_critical"
	IssueLowConfidence         = "low_confidence"
)

// Verifier applies alignment and provenance policy.
type Verifier struct {
	cfg model.VerifierConfig
}

// New creates a verifier with the given policy.
func New(cfg model.VerifierConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

// VerifyAlignment checks a narrative's token claims against the fact set.
// All violations are collected; nothing fails fast.
func (v *Verifier) VerifyAlignment(facts []*model.Fact, narrative *model.Narrative) *model.AlignmentReport {
	report := &model.AlignmentReport{
		UnknownTokens: []string{},
		MissingTokens: []string{},
	}
	if narrative == nil {
		report.Violations = append(report.Violations, model.Violation{
			Issue: IssueEmptySentence,
			Text:  "narrative is nil",
		})
		return report
	}
	report.SentenceCount = len(narrative.Sentences)

	known := make(map[string]bool)
	for _, f := range facts {
		for _, t := range f.Tokens {
			known[t.TokenID] = true
		}
	}

	declared := make(map[string]bool, len(narrative.UsedTokens))
	for _, id := range narrative.UsedTokens {
		declared[id] = true
		if !known[id] {
			report.UnknownTokens = append(report.UnknownTokens, id)
			report.Violations = append(report.Violations, model.Violation{
				Issue: IssueUnknownToken,
				Token: id,
			})
		}
	}
	sort.Strings(report.UnknownTokens)

	referenced := make(map[string]bool)
	for i, s := range narrative.Sentences {
		if s.Text == "" {
			report.Violations = append(report.Violations, model.Violation{
				Issue:    IssueEmptySentence,
				Sentence: i + 1,
			})
		}
		if len(s.Tokens) == 0 {
			report.Violations = append(report.Violations, model.Violation{
				Issue:    IssueUngroundedSentence,
				Sentence: i + 1,
				Text:     s.Text,
			})
			continue
		}
		for _, id := range s.Tokens {
			referenced[id] = true
			if !known[id] {
				report.Violations = append(report.Violations, model.Violation{
					Issue:    IssueSentenceUnknownToken,
					Sentence: i + 1,
					Token:    id,
				})
			}
			if !declared[id] {
				report.Violations = append(report.Violations, model.Violation{
					Issue:    IssueUndeclaredToken,
					Sentence: i + 1,
					Token:    id,
				})
			}
		}
	}

	for _, id := range narrative.UsedTokens {
		if !referenced[id] {
			report.MissingTokens = append(report.MissingTokens, id)
			report.Violations = append(report.Violations, model.Violation{
				Issue: IssueTokenNotInSentences,
				Token: id,
			})
		}
	}
	sort.Strings(report.MissingTokens)

	report.OK = len(report.Violations) == 0
	return report
}

// VerifyProvenance checks each fact's source references and confidence
// against policy. Critical facts need two independent (document, page)
// sources and a stricter confidence floor.
func (v *Verifier) VerifyProvenance(facts []*model.Fact) *model.ProvenanceReport {
	report := &model.ProvenanceReport{}

	for _, f := range facts {
		sources := make(map[string]bool, len(f.SourceRefs))
		for _, ref := range f.SourceRefs {
			sources[ref.Key()] = true
		}

		if len(sources) == 0 {
			report.Violations = append(report.Violations, model.Violation{
				Issue:  IssueNoSources,
				FactID: f.FactID,
				Text:   f.Text,
			})
		} else if f.Critical && v.cfg.RequireTwoSources && len(sources) < 2 {
			report.Violations = append(report.Violations, model.Violation{
				Issue:  IssueOnlyOneSource,
				FactID: f.FactID,
				Text:   f.Text,
			})
		}

		floor := v.cfg.DefaultConfidence
		issue := IssueLowConfidence
		if f.Critical {
			floor = v.cfg.CriticalConfidence
			issue = IssueLowConfidenceCritical
		}
		if f.Confidence < floor {
			report.Violations = append(report.Violations, model.Violation{
				Issue:     issue,
				FactID:    f.FactID,
				Value:     f.Confidence,
				Threshold: floor,
			})
		}
	}

	report.OK = len(report.Violations) == 0
	return report
}
