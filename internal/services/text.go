package services

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"unicode"
)

// CleanText normalizes extracted resume text: trims every line and drops
// empty ones.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}

// TruncateForEmbedding caps text at maxChars runes so oversized documents
// embed deterministically instead of failing at the provider. The cut is on
// a rune boundary to keep the payload valid UTF-8.
func TruncateForEmbedding(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	return string(runes[:maxChars])
}

// headerWords are lines that introduce a resume rather than name its owner.
var headerWords = []string{"resume", "curriculum", "vitae", "cv", "profile", "professional", "summary"}

// ExtractCandidateName guesses the candidate's name from resume text: the
// first of the top five lines that looks like a name (1-4 words, under 60
// chars, mostly alphabetic). Falls back to the first non-empty line, then
// to "Unknown".
func ExtractCandidateName(resumeText string) string {
	candidateName := "Unknown"

	var lines []string
	for _, line := range strings.Split(resumeText, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return candidateName
	}

	limit := 5
	if len(lines) < limit {
		limit = len(lines)
	}

	for _, line := range lines[:limit] {
		if containsHeaderWord(line) {
			continue
		}

		words := strings.Fields(line)
		if len(words) < 1 || len(words) > 4 || len(line) >= 60 {
			continue
		}

		if alphaRatio(line) > 0.7 {
			candidateName = line
			break
		}
	}

	if candidateName == "Unknown" {
		fallback := lines[0]
		if len(fallback) > 60 {
			fallback = fallback[:60]
		}
		candidateName = fallback
	}

	return candidateName
}

func containsHeaderWord(line string) bool {
	lower := strings.ToLower(line)
	for _, word := range headerWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func alphaRatio(line string) float64 {
	if line == "" {
		return 0
	}

	matched := 0
	total := 0
	for _, r := range line {
		total++
		if unicode.IsLetter(r) || unicode.IsSpace(r) || r == '.' || r == '-' || r == ',' {
			matched++
		}
	}

	return float64(matched) / float64(total)
}

// BuildResumeID derives a deterministic per-resume identifier from the
// candidate name and a hash of the extracted text, so re-uploading the same
// document overwrites its vector instead of duplicating it.
func BuildResumeID(candidateName, resumeText string) string {
	sum := sha1.Sum([]byte(resumeText))
	hash := hex.EncodeToString(sum[:])[:8]
	return strings.ReplaceAll(candidateName, " ", "_") + "_" + hash
}
