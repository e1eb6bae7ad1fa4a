package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/evidentia/internal/model"
)

// Renderer writes analysis results as JSON and Markdown.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the result as indented JSON.
func (r *Renderer) RenderJSON(result *Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// RenderMarkdown writes a human-readable case report.
func (r *Renderer) RenderMarkdown(result *Result, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Дело %s\n\n", result.CaseID)
	fmt.Fprintf(&b, "Сформировано: %s\n\n", result.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	if result.NoEvidence {
		b.WriteString("**Доказательственная база не сформирована**: " +
			"в материалах не найдено фактов, пригодных для фабулы.\n")
		return os.WriteFile(path, []byte(b.String()), 0644)
	}

	b.WriteString("## Квалификация (предварительно)\n\n")
	if result.Classification.Primary != "" {
		fmt.Fprintf(&b, "- Основная статья: **%s**\n", result.Classification.Primary)
	} else {
		b.WriteString("- Основная статья: не определена\n")
	}
	if len(result.Classification.Secondary) > 0 {
		fmt.Fprintf(&b, "- Дополнительно: %s\n", strings.Join(result.Classification.Secondary, ", "))
	}
	b.WriteString("\n")
	writeScores(&b, result.Classification)

	if result.Narrative != nil {
		b.WriteString("## Фабула\n\n")
		b.WriteString(result.Narrative.Text)
		b.WriteString("\n\n")
		if result.Alignment != nil {
			if result.Alignment.OK {
				fmt.Fprintf(&b, "_Проверка соответствия: пройдена (%d предложений)._\n\n",
					result.Alignment.SentenceCount)
			} else {
				fmt.Fprintf(&b, "_Проверка соответствия: НЕ пройдена, нарушений: %d._\n\n",
					len(result.Alignment.Violations))
			}
		}
	}

	b.WriteString("## Факты\n\n")
	for _, group := range []model.RoutingGroup{model.GroupPrimary, model.GroupSecondary, model.GroupReserve} {
		facts := factsOfGroup(result.Facts, group)
		if len(facts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s (%d)\n\n", groupTitle(group), len(facts))
		for _, f := range facts {
			fmt.Fprintf(&b, "- %s\n", f.Text)
			fmt.Fprintf(&b, "  - роль: %s, уверенность: %.2f, источники: %s\n",
				f.Role, f.Confidence, sourceList(f))
		}
		b.WriteString("\n")
	}

	if !result.Provenance.OK {
		fmt.Fprintf(&b, "## Замечания по источникам\n\nНарушений: %d\n\n", len(result.Provenance.Violations))
		for _, v := range result.Provenance.Violations {
			fmt.Fprintf(&b, "- %s: факт %s\n", v.Issue, v.FactID)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n")
		b.WriteString("Отчет построен только по материалам дела; каждый факт " +
			"несет ссылки на документ и страницу.\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

// RenderSummary prints the one-screen run summary to stdout.
func (r *Renderer) RenderSummary(result *Result) {
	fmt.Printf("\nCase: %s\n", result.CaseID)
	fmt.Printf("Windows: %d  Facts: %d raw → %d merged → %d routed\n",
		result.Windows, result.RawFacts, result.MergedFacts, len(result.Facts))

	if result.NoEvidence {
		fmt.Println("Result: no usable evidence")
		return
	}
	if result.Classification.Primary != "" {
		fmt.Printf("Primary article: %s\n", result.Classification.Primary)
	}
	if len(result.Classification.Secondary) > 0 {
		fmt.Printf("Secondary: %s\n", strings.Join(result.Classification.Secondary, ", "))
	}
	if result.Alignment != nil {
		if result.Alignment.OK {
			fmt.Println("Narrative: verified")
		} else {
			fmt.Printf("Narrative: REJECTED (%d violations)\n", len(result.Alignment.Violations))
		}
	}
	if !result.Provenance.OK {
		fmt.Printf("Provenance: %d violations\n", len(result.Provenance.Violations))
	}
}

func writeScores(b *strings.Builder, cls *model.ClassificationResult) {
	articles := make([]string, 0, len(cls.Scores))
	for art, s := range cls.Scores {
		if s.Score > 0 {
			articles = append(articles, art)
		}
	}
	if len(articles) == 0 {
		return
	}
	sort.Slice(articles, func(i, j int) bool {
		si, sj := cls.Scores[articles[i]].Score, cls.Scores[articles[j]].Score
		if si != sj {
			return si > sj
		}
		return articles[i] < articles[j]
	})

	b.WriteString("| Статья | Баллы |\n|---|---|\n")
	for _, art := range articles {
		fmt.Fprintf(b, "| %s | %.2f |\n", art, cls.Scores[art].Score)
	}
	b.WriteString("\n")
}

func factsOfGroup(facts []*model.Fact, group model.RoutingGroup) []*model.Fact {
	var out []*model.Fact
	for _, f := range facts {
		if f.RoutingGroup == group {
			out = append(out, f)
		}
	}
	return out
}

func groupTitle(group model.RoutingGroup) string {
	switch group {
	case model.GroupPrimary:
		return "Основные"
	case model.GroupSecondary:
		return "Дополнительные"
	case model.GroupReserve:
		return "Резерв"
	default:
		return string(group)
	}
}

func sourceList(f *model.Fact) string {
	parts := make([]string, 0, len(f.SourceRefs))
	for _, ref := range f.SourceRefs {
		parts = append(parts, fmt.Sprintf("%s стр. %d", ref.DocumentID, ref.Page))
	}
	return strings.Join(parts, "; ")
}
