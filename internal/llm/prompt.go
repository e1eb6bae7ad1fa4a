package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/evidentia/internal/model"
)

const systemInstruction = "Вы составляете фабулу уголовного дела строго по предоставленным фактам. " +
	"Ответ должен быть валидным JSON без пояснений вне JSON."

// maxPromptFacts caps the prompt length; the router already ordered facts by
// priority, so a prefix is the highest-value subset.
const maxPromptFacts = 240

// BuildPrompt constructs the narrative-generation prompt. Every fact is
// listed with the token ids the model is allowed to cite; the response
// contract requires a sentence-to-token map so the verifier can check every
// generated sentence against the evidentiary record.
func BuildPrompt(facts []*model.Fact, meta *model.Meta, cls *model.ClassificationResult) string {
	var b strings.Builder

	b.WriteString("Составьте краткую фабулу по следующим фактам из материалов дела.\n\n")

	b.WriteString("ПРАВИЛА:\n")
	b.WriteString("1. Используйте ТОЛЬКО перечисленные ниже факты. Ничего не добавляйте от себя.\n")
	b.WriteString("2. Каждое предложение фабулы должно опираться минимум на один токен из списка.\n")
	b.WriteString("3. Суммы, даты и имена берите дословно из значений токенов.\n")
	b.WriteString("4. Не делайте вывода о виновности; описывайте только установленные факты.\n\n")

	if cls != nil && cls.Primary != "" {
		fmt.Fprintf(&b, "Рабочая квалификация (подсказка, не вывод): статья %s", cls.Primary)
		if len(cls.Secondary) > 0 {
			fmt.Fprintf(&b, "; дополнительно: %s", strings.Join(cls.Secondary, ", "))
		}
		b.WriteString("\n\n")
	}

	if meta != nil {
		writeMeta(&b, meta)
	}

	b.WriteString("ФАКТЫ:\n")
	for i, f := range facts {
		if i >= maxPromptFacts {
			fmt.Fprintf(&b, "... и еще %d фактов опущено\n", len(facts)-maxPromptFacts)
			break
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, f.RoutingGroup, f.Text)
		for _, t := range f.Tokens {
			fmt.Fprintf(&b, "   токен %s (%s): %s\n", t.TokenID, t.Type, t.Value)
		}
	}

	b.WriteString("\nФОРМАТ ОТВЕТА — строго JSON:\n")
	b.WriteString(`{
  "text": "полный текст фабулы",
  "used_tokens": ["tok-...", "tok-..."],
  "sentences": [
    {"text": "первое предложение", "tokens": ["tok-..."]},
    {"text": "второе предложение", "tokens": ["tok-...", "tok-..."]}
  ]
}
`)
	b.WriteString("Поле sentences обязательно: ответ без него будет отклонен.\n")

	return b.String()
}

func writeMeta(b *strings.Builder, meta *model.Meta) {
	if len(meta.Projects) > 0 {
		fmt.Fprintf(b, "Упомянутые проекты: %s\n", strings.Join(meta.Projects, ", "))
	}
	if len(meta.Organizations) > 0 {
		fmt.Fprintf(b, "Упомянутые организации: %s\n", strings.Join(meta.Organizations, ", "))
	}
	if len(meta.Suspects) > 0 {
		fmt.Fprintf(b, "Действующие лица: %s\n", strings.Join(meta.Suspects, ", "))
	}
	if meta.Amounts.Count > 0 {
		fmt.Fprintf(b, "Денежных сумм в деле: %d\n", meta.Amounts.Count)
	}
	b.WriteString("\n")
}
