package assembler

import (
	"encoding/json"
	"strings"
)

// Cleaner repairs cosmetic problems in model output before it is parsed.
// Implementations must never lengthen their input; Chain relies on that to
// reach a fixed point.
type Cleaner interface {
	Clean(text string) string
}

// CleanerFunc adapts a function to the Cleaner interface.
type CleanerFunc func(string) string

func (f CleanerFunc) Clean(text string) string { return f(text) }

var diacritics = strings.NewReplacer(
	"ă", "a", "î", "i", "â", "a", "ș", "s", "ț", "t",
	"Ă", "A", "Î", "I", "Â", "A", "Ș", "S", "Ț", "T",
)

var controlChars = strings.NewReplacer("\n", "", "\t", "")

// DiacriticCleaner is the default normalisation. It unwraps payloads that
// arrive as a JSON-encoded string, drops embedded newlines and tabs, and
// folds the comma-below Romanian diacritics (ă î â ș ț and their capitals) to
// ASCII. Every other character passes through. It is applied until the text stops
// changing, so cleaning twice equals cleaning once.
type DiacriticCleaner struct{}

func (DiacriticCleaner) Clean(text string) string {
	for {
		next := diacriticStep(text)
		if next == text {
			return text
		}
		text = next
	}
}

func diacriticStep(text string) string {
	text = unquote(text)
	text = controlChars.Replace(text)
	return diacritics.Replace(text)
}

// unquote decodes `"{\"a\": 1}"` into `{"a": 1}`. Anything that is not a
// quoted JSON string is returned unchanged.
func unquote(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 || trimmed[0] != '"' || trimmed[len(trimmed)-1] != '"' {
		return text
	}
	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
		return text
	}
	return inner
}

// CodeFenceCleaner strips a surrounding markdown code fence such as ```json ... ```.
type CodeFenceCleaner struct{}

func (CodeFenceCleaner) Clean(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	body := strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		// single-line fence: ```json {"a":1}```
		body = strings.TrimLeft(body, "abcdefghijklmnopqrstuvwxyz")
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

type chain []Cleaner

// Chain applies cleaners in order, repeating the whole sequence until the
// text is stable.
func Chain(cleaners ...Cleaner) Cleaner {
	return chain(cleaners)
}

func (c chain) Clean(text string) string {
	for {
		next := text
		for _, cl := range c {
			next = cl.Clean(next)
		}
		if next == text {
			return text
		}
		text = next
	}
}
