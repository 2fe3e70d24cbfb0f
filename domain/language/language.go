// Package language is the single point of truth for normalizing
// participant-declared language tags. Pure lookup tables, no state.
package language

// codes maps a declared tag to the translation-service code. Unknown tags
// fall back to "en".
var codes = map[string]string{
	"english-us": "en",
	"english-gb": "en",
	"english-in": "en",
	"spanish":    "es",
	"french-fr":  "fr",
	"german":     "de",
	"japanese":   "ja",
	"hindi":      "hi",
	"chinese-cn": "zh-CN",
}

// displayNames maps a translation-service code to a human-readable name for
// prompt framing. Unknown codes read as "English".
var displayNames = map[string]string{
	"en":    "English",
	"es":    "Spanish",
	"fr":    "French",
	"de":    "German",
	"ja":    "Japanese",
	"hi":    "Hindi",
	"zh-CN": "Chinese",
}

// ttsSupported is the set of codes the speech backend accepts. Anything
// else is silently remapped to "en" before synthesis.
var ttsSupported = map[string]struct{}{
	"en": {}, "es": {}, "fr": {}, "de": {},
	"ja": {}, "pt": {}, "hi": {}, "ko": {},
}

func Resolve(tag string) string {
	if code, ok := codes[tag]; ok {
		return code
	}
	return "en"
}

// Code accepts either a declared tag or an already-resolved code and
// returns the code.
func Code(v string) string {
	if _, ok := displayNames[v]; ok {
		return v
	}
	return Resolve(v)
}

func DisplayName(code string) string {
	if name, ok := displayNames[code]; ok {
		return name
	}
	return "English"
}

func TTSSupported(code string) bool {
	_, ok := ttsSupported[code]
	return ok
}
