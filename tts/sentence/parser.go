// Package sentence splits scripts into sentences and estimates how long they
// take to speak.
package sentence

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// wordsPerMinute is the speaking pace at rate 1.0.
const wordsPerMinute = 150.0

var (
	numberRegex = regexp.MustCompile(`\d+`)
	pauseRegex  = regexp.MustCompile(`[,;:\-()]`)
)

// Stats summarizes a script.
type Stats struct {
	Words     int
	Sentences int
	Duration  time.Duration
}

// Analyze counts the words and sentences of text and estimates its spoken
// duration at rate.
func Analyze(text string, rate float64) Stats {
	sentences := Split(text)
	var d time.Duration
	for _, s := range sentences {
		d += EstimateDuration(s, rate)
	}
	return Stats{
		Words:     len(strings.Fields(text)),
		Sentences: len(sentences),
		Duration:  d,
	}
}

// Split returns the sentences of text with surrounding whitespace trimmed.
// Abbreviations, decimals and ellipses do not end a sentence.
func Split(text string) []string {
	runes := []rune(text)
	var out []string
	add := func(start, end int) {
		if s := strings.Join(strings.Fields(string(runes[start:end])), " "); s != "" {
			out = append(out, s)
		}
	}

	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		term := i + 1
		for term < len(runes) && isTerminal(runes[term]) {
			term++
		}
		end := term
		for end < len(runes) && isCloser(runes[end]) {
			end++
		}
		if !isSentenceEnd(runes, i, term, end) {
			i = end - 1
			continue
		}
		add(start, end)
		start = end
		i = end - 1
	}
	if start < len(runes) {
		add(start, len(runes))
	}
	return out
}

// EstimateDuration estimates the time needed to speak a sentence at rate.
// Numbers, punctuation and long words slow the pace down.
func EstimateDuration(text string, rate float64) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	if rate <= 0 {
		rate = 1
	}
	pace := wordsPerMinute * rate * (1 - complexity(text)*0.2)
	seconds := float64(words) * 60 / pace
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

func complexity(text string) float64 {
	c := float64(len(numberRegex.FindAllString(text, -1))) * 0.02
	c += float64(len(pauseRegex.FindAllString(text, -1))) * 0.01

	words := strings.Fields(text)
	long := 0
	for _, w := range words {
		if len([]rune(w)) > 10 {
			long++
		}
	}
	c += float64(long) / float64(len(words)+1) * 0.1
	return math.Min(c, 0.5)
}

func isTerminal(r rune) bool { return r == '.' || r == '!' || r == '?' }

func isCloser(r rune) bool { return r == '"' || r == '\'' || r == ')' || r == ']' || r == '»' || r == '”' }

// isSentenceEnd reports whether the punctuation run runes[pos:term],
// followed by closing quotes up to end, closes a sentence.
func isSentenceEnd(runes []rune, pos, term, end int) bool {
	if end >= len(runes) {
		return true
	}
	if !unicode.IsSpace(runes[end]) {
		return false
	}

	if runes[pos] == '.' {
		run := term - pos
		if run >= 3 && allDots(runes[pos:pos+3]) {
			return false
		}
		if run == 1 && isAbbreviation(wordBefore(runes, pos)) {
			return false
		}
	}

	next := end
	for next < len(runes) && unicode.IsSpace(runes[next]) {
		next++
	}
	if next == len(runes) {
		return true
	}
	if runes[pos] != '.' {
		return true
	}
	r := runes[next]
	return unicode.IsUpper(r) || unicode.IsDigit(r) || isOpener(r)
}

func isOpener(r rune) bool {
	return r == '"' || r == '\'' || r == '(' || r == '¿' || r == '¡' || r == '«' || r == '“'
}

func allDots(rs []rune) bool {
	for _, r := range rs {
		if r != '.' {
			return false
		}
	}
	return true
}

// wordBefore returns the lowercased word ending at the period at pos,
// without the period.
func wordBefore(runes []rune, pos int) string {
	start := pos
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	return strings.ToLower(strings.TrimLeft(string(runes[start:pos]), `"'(¿¡«“`))
}

func isAbbreviation(word string) bool {
	if word == "" {
		return false
	}
	if abbreviations[word] {
		return true
	}
	// U.S, Ph.D, e.g
	if strings.Contains(word, ".") {
		return true
	}
	r := []rune(word)
	return len(r) == 1 && unicode.IsLetter(r[0])
}

var abbreviations = func() map[string]bool {
	m := make(map[string]bool)
	for _, a := range []string{
		"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st",
		"llc", "inc", "ltd", "co", "corp",
		"etc", "vs", "cf", "al", "approx",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
		"mon", "tue", "wed", "thu", "fri", "sat", "sun",
		"ave", "blvd", "ln", "ct", "rd",
		"ft", "lbs", "oz", "kg", "km", "cm", "mm", "mi", "yd",
		"hr", "hrs", "min", "mins", "sec", "secs",
		"sra", "srta", "dra", "ud", "uds",
	} {
		m[a] = true
	}
	return m
}()
