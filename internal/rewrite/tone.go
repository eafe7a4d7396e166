package rewrite

import "strings"

// Tone is the style a script is rewritten toward
type Tone string

const (
	ToneEngaging     Tone = "engaging"
	ToneProfessional Tone = "professional"
	ToneFunny        Tone = "funny"
)

// Tones lists every supported tone
var Tones = []Tone{ToneEngaging, ToneProfessional, ToneFunny}

// ParseTone converts user input to a Tone. Matching ignores case and
// surrounding space.
func ParseTone(s string) (Tone, error) {
	candidate := Tone(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range Tones {
		if candidate == t {
			return t, nil
		}
	}
	return "", ErrInvalidTone
}
