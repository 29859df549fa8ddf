package assistant

import (
	"fmt"
	"strings"
)

type Role int

const (
	User Role = iota
	Assistant
)

func (r Role) String() string {
	if r == Assistant {
		return "assistant"
	}
	return "user"
}

// Message is one entry of the conversation history. It is never mutated
// after being appended to a Session.
type Message struct {
	Role    Role
	Content string
}

type Language string

const (
	English Language = "english"
	French  Language = "french"
	Arabic  Language = "arabic"
	Swahili Language = "swahili"
)

// Languages lists the selectable languages in menu order.
var Languages = []Language{English, French, Arabic, Swahili}

var languageCodes = map[Language]string{
	English: "en",
	French:  "fr",
	Arabic:  "ar",
	Swahili: "sw",
}

var noAnswers = map[Language]string{
	English: "I'm sorry, I don't have information about that. Please ask another question about OORT DataHub Africa.",
	French:  "Désolé, je n'ai pas d'information à ce sujet. Posez une autre question sur OORT DataHub Africa.",
	Arabic:  "عذراً، ليست لدي معلومات حول ذلك. يرجى طرح سؤال آخر حول OORT DataHub Africa.",
	Swahili: "Samahani, sina taarifa kuhusu hilo. Tafadhali uliza swali lingine kuhusu OORT DataHub Africa.",
}

// NoAnswer is the reply given in l when there is nothing to answer from.
func (l Language) NoAnswer() string {
	if s, ok := noAnswers[l]; ok {
		return s
	}
	return noAnswers[English]
}

// Code returns the ISO 639-1 code used by recognition providers.
func (l Language) Code() string {
	if c, ok := languageCodes[l]; ok {
		return c
	}
	return "en"
}

func (l Language) Label() string {
	if l == "" {
		return "English"
	}
	return strings.ToUpper(string(l[:1])) + string(l[1:])
}

// Next cycles through Languages, wrapping at the end.
func (l Language) Next() Language {
	for i, lang := range Languages {
		if lang == l {
			return Languages[(i+1)%len(Languages)]
		}
	}
	return English
}

// ParseLanguage accepts a language name ("french") or code ("fr").
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return English, nil
	}
	for lang, code := range languageCodes {
		if s == string(lang) || s == code {
			return lang, nil
		}
	}
	return "", fmt.Errorf("unknown language %q (use english, french, arabic or swahili)", s)
}
