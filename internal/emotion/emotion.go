// Package emotion scores the emotional tone of a student's message.
//
// Detect is a pure function: it holds no state between calls, performs no I/O
// and is safe to call from any number of goroutines.
package emotion

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Label is one of the five emotions a verdict can carry.
type Label string

const (
	Happy   Label = "happy"
	Sad     Label = "sad"
	Angry   Label = "angry"
	Anxious Label = "anxious"
	Neutral Label = "neutral"
)

// Labels lists every label in keyword-table order.
var Labels = []Label{Happy, Sad, Angry, Anxious, Neutral}

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

func (l Label) String() string { return string(l) }

// Analysis holds the intermediate measurements behind a Verdict.
type Analysis struct {
	SentimentScore       int     `json:"sentiment_score"`
	PunctuationIntensity float64 `json:"punctuation_intensity"`
	EmotionalKeywords    []Label `json:"emotional_keywords"`
	CapitalizationLevel  float64 `json:"capitalization_level"`
	QuestionCount        float64 `json:"question_count"`
}

// Verdict is the result of Detect.
type Verdict struct {
	Emotion    Label    `json:"emotion"`
	Sentiment  int      `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	Analysis   Analysis `json:"analysis"`
}

// Detect scores text and resolves the dominant emotion.
func Detect(text string) Verdict {
	sentiment := sentimentScore(text)
	punctuation := punctuationIntensity(text)
	keywords := keywordEmotions(text)
	capitalization := capitalizationLevel(text)
	questions := questionRatio(text)

	dominant := Neutral
	if len(keywords) > 0 {
		dominant = keywords[0]
	}

	switch {
	case sentiment > 3:
		dominant = Happy
	case sentiment < -3:
		dominant = Sad
	case capitalization > 0.3 && punctuation > 0.3:
		dominant = Angry
	case questions > 0.3:
		dominant = Anxious
	}

	factors := [...]float64{
		math.Abs(float64(sentiment)) / 10,
		punctuation,
		choose(len(keywords) > 0, 0.8, 0.2),
		choose(capitalization > 0.2, 0.7, 0.3),
		choose(questions > 0, 0.6, 0.3),
	}
	var sum float64
	for _, f := range factors {
		sum += f
	}
	confidence := math.Min(sum/float64(len(factors)), 1.0)

	return Verdict{
		Emotion:    dominant,
		Sentiment:  sentiment,
		Confidence: round2(confidence),
		Analysis: Analysis{
			SentimentScore:       sentiment,
			PunctuationIntensity: round2(punctuation),
			EmotionalKeywords:    keywords,
			CapitalizationLevel:  round2(capitalization),
			QuestionCount:        round2(questions),
		},
	}
}

// sentimentScore counts distinct positive and negative keywords contained in
// the lower-cased text. Matching is by substring, so "badger" counts as "bad".
func sentimentScore(text string) int {
	lower := strings.ToLower(text)

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	score := (pos - neg) * 2
	return max(-10, min(10, score))
}

var punctuationRun = regexp.MustCompile(`[!?]{2,}`)

func punctuationIntensity(text string) float64 {
	length := utf8.RuneCountInString(text)
	if length == 0 {
		return 0
	}

	exclamations := strings.Count(text, "!")
	questions := strings.Count(text, "?")
	runs := len(punctuationRun.FindAllStringIndex(text, -1))

	raw := float64(exclamations)*1.5 + float64(questions)*1.2 + float64(runs)*1.3
	return math.Min(raw/float64(length), 1.0)
}

// keywordEmotions returns the categories found in text, in table order.
func keywordEmotions(text string) []Label {
	lower := strings.ToLower(text)

	found := make([]Label, 0, len(keywordTable))
	for _, cat := range keywordTable {
		for _, w := range cat.keywords {
			if strings.Contains(lower, w) {
				found = append(found, cat.label)
				break
			}
		}
	}
	if len(found) == 0 {
		return []Label{Neutral}
	}
	return found
}

func capitalizationLevel(text string) float64 {
	var upper, letters int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return 0
	}
	return math.Min(float64(upper)/float64(letters), 1.0)
}

// questionRatio divides the number of '?' by the number of sentences.
// Splitting on n terminators always yields n+1 segments, empty ones included.
func questionRatio(text string) float64 {
	var questions, terminators int
	for _, r := range text {
		switch r {
		case '?':
			questions++
			terminators++
		case '.', '!':
			terminators++
		}
	}
	sentences := max(1, terminators+1)
	return float64(questions) / float64(sentences)
}

func choose(cond bool, yes, no float64) float64 {
	if cond {
		return yes
	}
	return no
}

// round2 rounds the exact binary value to two decimals, ties to even, so
// 0.125 gives 0.12 and 0.605 (stored as 0.60499...) gives 0.6.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
