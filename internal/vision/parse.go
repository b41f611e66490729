package vision

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vbonduro/plantasking/internal/domain"
	"github.com/vbonduro/plantasking/internal/prompt"
)

const (
	RecommendationNoAnswer = "Não foi possível analisar a imagem. Tente tirar outra foto."
	RecommendationNotPlant = "A imagem não parece ser de uma planta. Fotografe uma planta para continuar."
)

type AnalysisResult struct {
	Mood           domain.Mood `json:"mood"`
	Recommendation string      `json:"recommendation"`
}

// moodKeywords is ordered: the first keyword found wins.
var moodKeywords = []struct {
	keyword string
	mood    domain.Mood
}{
	{"feliz", domain.MoodHappy},
	{"doente", domain.MoodSick},
	{"triste", domain.MoodSad},
}

var notPlantPhrases = []string{prompt.NotAPlantSentinel, "nao e uma planta"}

var recommendationMarkers = []string{prompt.RecommendationMarker, "Recomendacao:", "Recommendation:"}

// ParseAnalysis extracts a mood and care recommendation from the model's
// "Sentimento: X / Recomendação: Y" reply. It tolerates surrounding prose and
// never fails: anything unrecognised becomes MoodUnknown.
func ParseAnalysis(raw string) AnalysisResult {
	if strings.TrimSpace(raw) == "" {
		return AnalysisResult{Mood: domain.MoodUnknown, Recommendation: RecommendationNoAnswer}
	}
	for _, phrase := range notPlantPhrases {
		if indexFold(raw, phrase) >= 0 {
			return AnalysisResult{Mood: domain.MoodUnknown, Recommendation: RecommendationNotPlant}
		}
	}

	return AnalysisResult{
		Mood:           parseMood(raw),
		Recommendation: parseRecommendation(raw),
	}
}

// parseMood scans the whole reply. When several labels appear, the
// precedence in moodKeywords decides, wherever they sit in the text.
func parseMood(raw string) domain.Mood {
	if mood, ok := matchMood(raw); ok {
		return mood
	}
	return domain.MoodUnknown
}

func matchMood(s string) (domain.Mood, bool) {
	for _, kw := range moodKeywords {
		if indexFold(s, kw.keyword) >= 0 {
			return kw.mood, true
		}
	}
	return "", false
}

// parseRecommendation returns the rest of the marker's line. When that is
// blank (the value wrapped onto the next line) the first non-blank line after
// it is used. Prose following the recommendation line is dropped.
func parseRecommendation(raw string) string {
	best, bestLen := -1, 0
	for _, marker := range recommendationMarkers {
		if idx := indexFold(raw, marker); idx >= 0 && (best < 0 || idx < best) {
			best, bestLen = idx, len(marker)
		}
	}
	if best < 0 {
		return ""
	}
	for _, line := range strings.Split(raw[best+bestLen:], "\n") {
		if rec := strings.Trim(line, " \t\r*"); rec != "" {
			return rec
		}
	}
	return ""
}

// ParseChatReply returns the text after the "Resposta:" marker. When the
// model ignored the template the whole reply is returned trimmed.
func ParseChatReply(raw string) string {
	idx := indexFold(raw, prompt.ReplyMarker)
	if idx < 0 {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(raw[idx+len(prompt.ReplyMarker):])
}

// ParseChatIndex reads the integer following the "Indice:" marker.
func ParseChatIndex(raw string) (int, bool) {
	idx := indexFold(raw, prompt.IndexMarker)
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimLeftFunc(raw[idx+len(prompt.IndexMarker):], unicode.IsSpace)
	end := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsDigit(r) && r != '-' })
	if end >= 0 {
		rest = rest[:end]
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// indexFold is a case-insensitive strings.Index.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
