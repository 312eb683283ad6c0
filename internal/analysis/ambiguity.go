package analysis

import "strings"

var beForms = termSet([]string{"am", "is", "are", "was", "were", "be", "been", "being"})

// words that may sit between a be-form and its participle besides -ly adverbs
var passiveModifiers = termSet([]string{"not", "never", "also", "still", "always", "often", "already", "just"})

// irregularParticiples covers common past participles that do not end in -ed.
var irregularParticiples = termSet([]string{
	"built", "chosen", "done", "drawn", "driven", "forgotten", "found", "given",
	"held", "hidden", "kept", "known", "left", "lost", "made", "meant", "paid",
	"put", "read", "run", "seen", "sent", "set", "shown", "sold", "spent",
	"taken", "told", "thrown", "understood", "won", "written",
})

// AmbiguityAnalyzer scores requirement text for linguistic vagueness
type AmbiguityAnalyzer struct {
	cfg      AmbiguityConfig
	pre      *Preprocessor
	vague    map[string]struct{}
	criteria map[string]struct{}
}

// NewAmbiguityAnalyzer creates an analyzer for the given vocabulary and weights
func NewAmbiguityAnalyzer(cfg AmbiguityConfig) *AmbiguityAnalyzer {
	return &AmbiguityAnalyzer{
		cfg:      cfg,
		pre:      NewPreprocessor(cfg.SentenceDelimiter),
		vague:    termSet(cfg.VagueTerms),
		criteria: termSet(cfg.CriteriaTerms),
	}
}

// Analyze scores every requirement line of text and the document as a whole.
// Empty text scores 0.
func (a *AmbiguityAnalyzer) Analyze(text string) AmbiguityResult {
	requirements := a.pre.SplitRequirements(text)
	result := AmbiguityResult{
		Method:       a.cfg.Method,
		Requirements: make([]RequirementScore, 0, len(requirements)),
	}

	scores := make([]float64, 0, len(requirements))
	for i, req := range requirements {
		metrics, hits := a.Measure(req)
		score := a.Score(metrics)

		result.Requirements = append(result.Requirements, RequirementScore{
			Index:      i,
			Text:       req,
			Metrics:    metrics,
			VagueTerms: hits,
			Score:      score,
		})
		result.SentenceCount += metrics.SentenceCount
		result.VagueSentences += metrics.VagueSentences
		scores = append(scores, score)
	}

	switch a.cfg.Method {
	case MethodSentenceRatio:
		result.Score = clamp01(ratio(float64(result.VagueSentences), float64(result.SentenceCount)))
	default:
		result.Score = clamp01(mean(scores))
	}

	return result
}

// Measure computes the raw signals of a single requirement. The second return
// value lists the distinct vague terms found, in order of first occurrence.
func (a *AmbiguityAnalyzer) Measure(text string) (RequirementMetrics, []string) {
	sentences := a.pre.SplitSentences(text)
	m := RequirementMetrics{SentenceCount: len(sentences)}

	var hits []string
	seen := make(map[string]bool)
	hasCriteria := false

	for _, sentence := range sentences {
		words := a.pre.Tokenize(sentence)
		m.WordCount += len(words)

		vagueHere := false
		for _, w := range words {
			if _, ok := a.vague[w]; ok {
				m.VagueCount++
				vagueHere = true
				if !seen[w] {
					seen[w] = true
					hits = append(hits, w)
				}
			}
			if _, ok := a.criteria[w]; ok {
				hasCriteria = true
			}
		}
		if vagueHere {
			m.VagueSentences++
		}
		m.PassiveCount += countPassive(words, a.vague)
	}

	m.VagueRatio = clamp01(ratio(float64(m.VagueCount), float64(m.WordCount)))
	m.AvgSentenceLength = ratio(float64(m.WordCount), float64(m.SentenceCount))
	m.SentenceLengthNorm = clamp01(m.AvgSentenceLength / a.cfg.SentenceLengthCap)
	m.PassiveRatio = clamp01(ratio(float64(m.PassiveCount), float64(m.SentenceCount)))
	m.MissingCriteria = !hasCriteria

	return m, hits
}

// Score turns metrics into a requirement score according to the configured method.
func (a *AmbiguityAnalyzer) Score(m RequirementMetrics) float64 {
	if a.cfg.Method == MethodSentenceRatio {
		return clamp01(ratio(float64(m.VagueSentences), float64(m.SentenceCount)))
	}
	// nothing to judge without words
	if m.WordCount == 0 {
		return 0
	}
	return weightedAmbiguity(m, a.cfg.Weights)
}

// countPassive counts "be" + [modifier] + past participle sequences. A
// modifier is a single -ly adverb, a word from passiveModifiers or one of the
// vague terms.
func countPassive(words []string, vague map[string]struct{}) int {
	count := 0
	for i := 0; i+1 < len(words); i++ {
		if _, ok := beForms[words[i]]; !ok {
			continue
		}
		j := i + 1
		if j+1 < len(words) && isModifier(words[j], vague) {
			j++
		}
		if isParticiple(words[j]) {
			count++
			i = j
		}
	}
	return count
}

func isModifier(w string, vague map[string]struct{}) bool {
	if strings.HasSuffix(w, "ly") {
		return true
	}
	if _, ok := passiveModifiers[w]; ok {
		return true
	}
	_, ok := vague[w]
	return ok
}

func isParticiple(w string) bool {
	if len(w) >= 4 && strings.HasSuffix(w, "ed") {
		return true
	}
	_, ok := irregularParticiples[w]
	return ok
}
