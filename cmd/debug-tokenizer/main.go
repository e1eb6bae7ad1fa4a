// Debug program to inspect sentence segmentation and fact tokenization
// for a single document. Shows what the pipeline sees before merge/filter.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/pipeline"
	"github.com/ppiankov/evidentia/internal/segment"
	"github.com/ppiankov/evidentia/internal/tokenize"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: debug-tokenizer <file.txt|file.html>")
		os.Exit(1)
	}

	loader := pipeline.NewLoader()
	windows, err := loader.LoadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "load: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Tokenizer Debug: %s ===\n\n", os.Args[1])
	fmt.Printf("Windows: %d\n\n", len(windows))

	tk := tokenize.New(model.DefaultConfig().Tokenizer)

	for _, w := range windows {
		fmt.Printf("Page %d (%d bytes)\n", w.Page, len(w.Text))
		fmt.Println(strings.Repeat("-", 60))

		sentences, err := segment.Split(w.Text)
		if err != nil {
			fmt.Printf("  segmentation error: %v\n", err)
			continue
		}
		fmt.Printf("  Sentences: %d\n", len(sentences))

		facts := tk.Tokenize([]tokenize.Window{w})
		fmt.Printf("  Facts: %d\n\n", len(facts))

		for _, f := range facts {
			marker := " "
			if f.Critical {
				marker = "!"
			}
			fmt.Printf("  %s [%s] conf=%.2f role=%s\n", marker, f.FactID, f.Confidence, f.Role)
			fmt.Printf("    %s\n", f.Text)
			for _, t := range f.Tokens {
				fmt.Printf("    - %s (%s): %s\n", t.TokenID, t.Type, t.Value)
			}
			if len(f.ArticleHints) > 0 {
				fmt.Printf("    hints: %v\n", f.ArticleHints)
			}
			fmt.Println()
		}
	}
}
