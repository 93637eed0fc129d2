package gemini

import (
	"context"
	"fmt"
	"math/rand"
)

// fallbackSeed keeps offline generation reproducible run to run. Testability
// is the point, not randomness.
const fallbackSeed = 42

var placeholderKeywords = []string{"core concept", "definition", "application", "summary"}

// DeterministicFallbackSource synthesizes questions from extracted keywords
// with no external calls. Identical input always yields identical output.
type DeterministicFallbackSource struct{}

func (DeterministicFallbackSource) Questions(_ context.Context, p GenerateParams) ([]GeneratedQuestion, error) {
	keywords := ExtractKeywords(p.SourceText, DefaultTopKeywords)
	if len(keywords) == 0 {
		keywords = placeholderKeywords
	}

	rng := rand.New(rand.NewSource(fallbackSeed))
	questions := make([]GeneratedQuestion, 0, p.MCQCount+p.OpenCount)

	for i := 0; i < p.MCQCount; i++ {
		keyword := keywords[i%len(keywords)]
		var distractors []string
		for _, kw := range keywords {
			if kw != keyword {
				distractors = append(distractors, kw)
			}
		}
		for len(distractors) < 3 {
			distractors = append(distractors, fmt.Sprintf("related idea %d", len(distractors)+1))
		}
		options := append([]string{keyword}, distractors[:3]...)
		rng.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})
		correct := ""
		for idx, opt := range options {
			if opt == keyword {
				correct = string("ABCD"[idx])
				break
			}
		}
		questions = append(questions, GeneratedQuestion{
			Kind:          "mcq",
			QuestionText:  fmt.Sprintf("Which option is most closely associated with '%s'?", keyword),
			Options:       options,
			CorrectOption: correct,
			Explanation:   fmt.Sprintf("The reference text emphasizes '%s' directly.", keyword),
		})
	}

	for i := 0; i < p.OpenCount; i++ {
		keyword := keywords[i%len(keywords)]
		questions = append(questions, GeneratedQuestion{
			Kind:         "open",
			QuestionText: fmt.Sprintf("Explain '%s' in your own words and why it matters in the source material.", keyword),
			Explanation:  fmt.Sprintf("Strong answers should define '%s' and connect it to the broader topic.", keyword),
		})
	}

	return questions, nil
}
