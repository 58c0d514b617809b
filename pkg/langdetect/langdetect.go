// Package langdetect guesses the natural language of a text sample.
package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// SampleLines is the number of leading lines handed to the detector.
const SampleLines = 200

// Detection is the outcome of a language guess.
type Detection struct {
	Language   string  `json:"language" yaml:"language"`
	ISOCode    string  `json:"iso_code" yaml:"iso_code"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over all languages lingua knows. Low accuracy mode
// keeps the model small; samples here are whole paragraphs.
func New() *Detector {
	return NewFor(lingua.AllLanguages()...)
}

// NewFor builds a detector limited to the given languages.
func NewFor(languages ...lingua.Language) *Detector {
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithLowAccuracyMode().
		Build()
	return &Detector{detector: d}
}

// Detect guesses the language of lines. ok is false when the sample is empty
// or the guess is unreliable.
func (d *Detector) Detect(lines []string) (Detection, bool) {
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return Detection{}, false
	}
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return Detection{}, false
	}
	return Detection{
		Language:   language.String(),
		ISOCode:    strings.ToLower(language.IsoCode639_1().String()),
		Confidence: d.detector.ComputeLanguageConfidence(text, language),
	}, true
}
