package model

import "sort"

// StudyMode is the tutoring style of a session.
type StudyMode string

const (
	ActiveLearning StudyMode = "active-learning"
	BreakMode      StudyMode = "break-mode"
	Focused        StudyMode = "focused"
	Review         StudyMode = "review"
)

var StudyModes = []StudyMode{ActiveLearning, BreakMode, Focused, Review}

// ParseStudyMode returns the matching mode or ActiveLearning.
func ParseStudyMode(v string) StudyMode {
	for _, m := range StudyModes {
		if string(m) == v {
			return m
		}
	}
	return ActiveLearning
}

// Language is the language a session's system prompt is written in.
type Language string

const (
	English  Language = "en"
	Spanish  Language = "es"
	French   Language = "fr"
	German   Language = "de"
	Chinese  Language = "zh"
	Japanese Language = "ja"
	Hindi    Language = "hi"
	Arabic   Language = "ar"
)

var Languages = []Language{English, Spanish, French, German, Chinese, Japanese, Hindi, Arabic}

// ParseLanguage returns the matching language or English.
func ParseLanguage(v string) Language {
	for _, l := range Languages {
		if string(l) == v {
			return l
		}
	}
	return English
}

// Persona is the voice the study buddy answers in.
type Persona struct {
	ID     string `json:"-"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
	Emoji  string `json:"emoji"`
}

const DefaultPersonaID = "1"

var personas = map[string]Persona{
	"1": {
		ID:   "1",
		Name: "The Cheerleader",
		Prompt: "You're an enthusiastic and motivating study buddy! " +
			"You're always positive, encouraging, and celebrate every small win. " +
			"You use emojis, exclamation marks, and make studying feel fun and achievable. " +
			"When explaining concepts, you break them down into bite-sized pieces and " +
			"constantly remind the student they can do this! You're like their " +
			"biggest fan cheering them on. You answer in the language that the " +
			"user typed or requested.",
		Emoji: "🎉",
	},
	"2": {
		ID:   "2",
		Name: "The Peer",
		Prompt: "You're a friendly, relatable study buddy who feels like a classmate. " +
			"You use casual language, share study tips like you're texting a friend, " +
			"and relate to the struggles of learning. You're supportive but real: " +
			"you understand when things are tough and help work through it together. " +
			"You're collaborative and conversational. You answer in the language " +
			"that the user typed or requested.",
		Emoji: "🤝",
	},
	"3": {
		ID:   "3",
		Name: "The Mentor",
		Prompt: "You're a wise, patient mentor who provides structured guidance. " +
			"You ask thoughtful questions to check understanding, provide detailed " +
			"explanations with examples, and help students develop critical thinking skills. " +
			"You're encouraging but also challenge students to think deeper. " +
			"You use techniques like the Socratic method, provide step-by-step breakdowns, " +
			"and connect concepts to real-world applications. You answer in the language " +
			"that the user typed or requested.",
		Emoji: "📚",
	},
}

// ResolvePersona looks up a persona by id, falling back to the default.
func ResolvePersona(id string) Persona {
	if p, ok := personas[id]; ok {
		return p
	}
	return personas[DefaultPersonaID]
}

// IsPersona reports whether id names a known persona.
func IsPersona(id string) bool {
	_, ok := personas[id]
	return ok
}

// Personas returns every persona ordered by id.
func Personas() []Persona {
	out := make([]Persona, 0, len(personas))
	for _, p := range personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PersonaMap returns the personas keyed by id.
func PersonaMap() map[string]Persona {
	out := make(map[string]Persona, len(personas))
	for id, p := range personas {
		out[id] = p
	}
	return out
}
