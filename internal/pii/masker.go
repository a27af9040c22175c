// Package pii detects Japanese personal and corporate identifiers in free
// text and replaces them with plausible fakes, recording a mapping that
// lets the original values be restored once an upstream model has seen only
// the masked text.
package pii

import (
	"regexp"
	"strings"
	"sync"
)

var (
	companyPattern = regexp.MustCompile(
		`(?:株式会社|有限会社|合同会社|一般社団法人|一般財団法人)[\p{Katakana}\p{Han}ー・a-zA-Z0-9]+` +
			`|[\p{Katakana}\p{Han}ー・a-zA-Z0-9]+(?:株式会社|有限会社|合同会社|Corp\.|Inc\.|Ltd\.|LLC|Co\.)`)

	personPattern = regexp.MustCompile(`[\p{Han}]{1,4}[\s　][\p{Han}]{1,4}`)

	addressPattern = regexp.MustCompile(
		`(?:東京都|北海道|(?:京都|大阪)府|[\p{Han}]{2,3}県)[\p{Han}\p{Hiragana}\p{Katakana}0-9ー・\s　-]+(?:市|区|町|村)[\p{Han}\p{Hiragana}\p{Katakana}0-9ー・\s　-]*`)

	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	phonePattern = regexp.MustCompile(`(?:0\d{1,4}-\d{1,4}-\d{4}|\d{3}-\d{4}-\d{4})`)
)

// Masker replaces PII with fakes and remembers the mapping to restore it.
// A Masker is not safe for concurrent use; the pipeline masks every request
// through MaskWithSharedPool, which serializes access to one shared Masker.
type Masker struct {
	gen *pseudonymGenerator
}

// NewMasker returns a Masker ready for a single request's detect/unmask cycle.
func NewMasker() *Masker {
	return &Masker{gen: newPseudonymGenerator()}
}

// Mask replaces each detected PII span with a generated fake, in order:
// company, email, phone, person, address. This ordering matters — company
// names can contain kanji sequences that would otherwise also match the
// person pattern, so company substitution must run first.
//
// It returns the masked text and a map from fake value to the original it
// replaced. Fakes are never substituted into text from which the original
// has already disappeared (guards against double-matching overlapping
// patterns on an already-masked string).
func (m *Masker) Mask(text string) (string, map[string]string) {
	masked := text
	mappings := make(map[string]string)

	replaceMatches := func(pattern *regexp.Regexp, fake func() string) {
		for _, real := range pattern.FindAllString(text, -1) {
			if !strings.Contains(masked, real) {
				continue
			}
			f := fake()
			// Re-draw a fake that is already a mapping key or already occurs in
			// the original or working text, so every fake maps back to exactly
			// one original.
			for i := 0; i < 16 && (mappings[f] != "" || strings.Contains(text, f) || strings.Contains(masked, f)); i++ {
				f = fake()
			}
			masked = strings.ReplaceAll(masked, real, f)
			mappings[f] = real
		}
	}

	replaceMatches(companyPattern, m.gen.company)
	replaceMatches(emailPattern, m.gen.email)
	replaceMatches(phonePattern, m.gen.phone)
	replaceMatches(personPattern, m.gen.person)
	replaceMatches(addressPattern, m.gen.address)

	return masked, mappings
}

// Unmask restores original values in text given the mapping Mask produced.
func Unmask(text string, mappings map[string]string) string {
	unmasked := text
	for fake, real := range mappings {
		unmasked = strings.ReplaceAll(unmasked, fake, real)
	}
	return unmasked
}

// sharedPool holds one process-wide Masker, guarded by a mutex since a
// Masker itself is not goroutine-safe.
type sharedPool struct {
	mu sync.Mutex
	m  *Masker
}

var pool = &sharedPool{m: NewMasker()}

// MaskWithSharedPool masks text using the process-wide Masker, holding its
// mutex for the whole call so pseudonym generation advances atomically. The
// request pipeline masks every chat request through it, so concurrent
// requests take turns on the same RNG.
func MaskWithSharedPool(text string) (string, map[string]string) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return pool.m.Mask(text)
}
