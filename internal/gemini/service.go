package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type GenerateParams struct {
	SourceText string // pre-truncated upstream to 100k chars
	Title      string
	MCQCount   int
	OpenCount  int
	Difficulty string // free-form label, embedded in the prompt as-is
}

// QuestionSource produces raw questions for a generation request. Chosen
// once at construction: model-backed when a credential exists, otherwise the
// deterministic fallback.
type QuestionSource interface {
	Questions(ctx context.Context, p GenerateParams) ([]GeneratedQuestion, error)
}

// Service is the generation and open-grading engine. It is stateless apart
// from its immutable wiring, so concurrent calls are safe.
type Service struct {
	source QuestionSource
	client ModelClient // nil means offline grading fallback
}

// NewService wires the engine. A nil client selects the deterministic
// fallback for both generation and open-answer grading.
func NewService(client ModelClient) *Service {
	if client == nil {
		return &Service{source: DeterministicFallbackSource{}}
	}
	return &Service{source: &ModelBackedSource{Client: client}, client: client}
}

// NewServiceWithSource is the test seam for injecting a source directly.
func NewServiceWithSource(source QuestionSource, client ModelClient) *Service {
	return &Service{source: source, client: client}
}

// GenerateQuestions runs the configured source, post-processes the accepted
// questions and reports wall-clock latency in milliseconds. Questions that
// are structurally unusable (MCQ with <2 options) are dropped, so the
// result may be shorter than requested.
func (s *Service) GenerateQuestions(ctx context.Context, p GenerateParams) ([]GeneratedQuestion, int64, error) {
	start := time.Now()
	questions, err := s.source.Questions(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	questions = postProcess(questions)
	return questions, time.Since(start).Milliseconds(), nil
}

// GradeOpenAnswer scores a free-text answer against reference material.
// Returns (score, feedback, grader tag). Unlike generation there is no
// repair retry: a malformed grading response fails immediately.
func (s *Service) GradeOpenAnswer(ctx context.Context, referenceText, questionText, userAnswer string) (float64, string, string, error) {
	if s.client == nil {
		score, feedback := fallbackGrade(referenceText, questionText, userAnswer)
		return score, feedback, "fallback", nil
	}

	prompt := gradePrompt(referenceText, questionText, userAnswer)
	raw, err := s.client.GenerateJSON(ctx, prompt)
	if err != nil {
		return 0, "", "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	env, err := ParseGradeEnvelope(raw)
	if err != nil {
		return 0, "", "", fmt.Errorf("%w: grading response rejected: %v", ErrGenerationFailed, err)
	}
	score := clamp01(env.Score)
	return score, strings.TrimSpace(env.Feedback), "model", nil
}

// ModelBackedSource asks the model for a generation envelope and issues
// exactly one repair call when the first response fails validation.
// Transport errors are terminal immediately.
type ModelBackedSource struct {
	Client ModelClient
}

func (m *ModelBackedSource) Questions(ctx context.Context, p GenerateParams) ([]GeneratedQuestion, error) {
	prompt := generationPrompt(p)
	raw, err := m.Client.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	env, perr := ParseGenerationEnvelope(raw)
	if perr == nil {
		return env.Questions, nil
	}

	// One repair attempt, embedding the rejected output. Never more.
	retryRaw, err := m.Client.GenerateJSON(ctx, repairPrompt(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	env, perr = ParseGenerationEnvelope(retryRaw)
	if perr != nil {
		return nil, fmt.Errorf("%w: repair attempt rejected: %v", ErrGenerationFailed, perr)
	}
	return env.Questions, nil
}

func generationPrompt(p GenerateParams) string {
	var b strings.Builder
	b.WriteString("You are generating quiz questions for students. ")
	b.WriteString("Return JSON only. No markdown. ")
	fmt.Fprintf(&b, "Create %d MCQ questions and %d open-ended questions. ", p.MCQCount, p.OpenCount)
	fmt.Fprintf(&b, "Difficulty: %s. Quiz title: %s.\n", p.Difficulty, p.Title)
	b.WriteString("For MCQ: include options as an array of 4 strings and correct_option as A, B, C, or D. ")
	b.WriteString("For open questions: options and correct_option must be null.\n")
	b.WriteString("Use this bounded source text only:\n<SOURCE>\n")
	b.WriteString(p.SourceText)
	b.WriteString("\n</SOURCE>")
	return b.String()
}

func repairPrompt(invalid string) string {
	return "Your previous output was invalid JSON for the required schema. " +
		"Return corrected JSON only for the same schema.\nInvalid output:\n" + invalid
}

func gradePrompt(referenceText, questionText, userAnswer string) string {
	var b strings.Builder
	b.WriteString("Grade the user's open-ended answer with strict JSON output. ")
	b.WriteString("Score must be between 0 and 1. Feedback must be concise and constructive.\n")
	fmt.Fprintf(&b, "Question:\n%s\n\n", questionText)
	fmt.Fprintf(&b, "User answer:\n%s\n\n", userAnswer)
	b.WriteString("Reference material:\n<REFERENCE>\n")
	b.WriteString(referenceText)
	b.WriteString("\n</REFERENCE>")
	return b.String()
}

// postProcess normalizes every accepted question, model-generated or not:
// MCQs are capped at 4 options and dropped entirely below 2, the correct
// key defaults into {A,B,C,D}, text is trimmed, and open questions are
// stripped of options regardless of what the model returned.
func postProcess(questions []GeneratedQuestion) []GeneratedQuestion {
	processed := make([]GeneratedQuestion, 0, len(questions))
	for _, q := range questions {
		if q.Kind == "mcq" {
			options := q.Options
			if len(options) < 2 {
				continue
			}
			if len(options) > 4 {
				options = options[:4]
			}
			correct := strings.ToUpper(strings.TrimSpace(q.CorrectOption))
			switch correct {
			case "A", "B", "C", "D":
			default:
				correct = "A"
			}
			processed = append(processed, GeneratedQuestion{
				Kind:          "mcq",
				QuestionText:  strings.TrimSpace(q.QuestionText),
				Options:       options,
				CorrectOption: correct,
				Explanation:   strings.TrimSpace(q.Explanation),
			})
			continue
		}
		processed = append(processed, GeneratedQuestion{
			Kind:         "open",
			QuestionText: strings.TrimSpace(q.QuestionText),
			Explanation:  strings.TrimSpace(q.Explanation),
		})
	}
	return processed
}

// fallbackGrade is the offline open-answer heuristic: keyword overlap
// against the reference material with a small length bonus.
func fallbackGrade(referenceText, questionText, userAnswer string) (float64, string) {
	answerWords := map[string]struct{}{}
	for _, w := range wordRe.FindAllString(userAnswer, -1) {
		answerWords[strings.ToLower(w)] = struct{}{}
	}
	if len(answerWords) == 0 {
		return 0.0, "No answer detected. Provide a concise explanation using key concepts."
	}

	referenceWords := map[string]struct{}{}
	for _, w := range ExtractKeywords(referenceText+" "+questionText, 12) {
		referenceWords[w] = struct{}{}
	}

	overlap := 0
	for w := range answerWords {
		if _, ok := referenceWords[w]; ok {
			overlap++
		}
	}
	target := len(referenceWords)
	if target > 6 {
		target = 6
	}
	if target < 1 {
		target = 1
	}
	lengthBonus := float64(len(answerWords)) / 40
	if lengthBonus > 0.2 {
		lengthBonus = 0.2
	}
	score := clamp01(float64(overlap)/float64(target) + lengthBonus)

	if overlap == 0 {
		return score, "Your answer is readable but misses the core concepts from the reference material."
	}
	return score, fmt.Sprintf("You covered %d important concept(s). Improve by explicitly referencing more source terminology.", overlap)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
