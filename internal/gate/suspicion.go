package gate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// inspectSuspicious scans a raw command for unicode tricks that make the
// displayed text differ from what the shell executes: invisible formatting
// characters, cross-script homoglyphs and compatibility forms. Findings are
// warnings for the operator, not an automatic deny; the tokenizers already
// flag unquoted non-ASCII conservatively.
func inspectSuspicious(command string) []string {
	var warnings []string

	if !utf8.ValidString(command) {
		warnings = append(warnings, "command contains invalid UTF-8 bytes")
	}

	if n := countInvisible(command); n > 0 {
		warnings = append(warnings, fmt.Sprintf("command contains %d invisible unicode character(s)", n))
	}

	if runes := confusableRunes(command); len(runes) > 0 {
		warnings = append(warnings, fmt.Sprintf("command contains lookalike character(s): %s", strings.Join(runes, " ")))
	}

	// NFKC folding changing the string means compatibility forms are in
	// play (fullwidth slashes, ligatures) that can dodge string matching.
	if folded := norm.NFKC.String(command); folded != command {
		warnings = append(warnings, "command changes under unicode normalization")
	}

	return warnings
}

func countInvisible(s string) int {
	n := 0
	for _, r := range s {
		if invisibleRunes[r] {
			n++
		}
	}
	return n
}

func confusableRunes(s string) []string {
	var found []string
	seen := make(map[rune]bool)
	for _, r := range s {
		if ascii, ok := confusableMap[r]; ok && !seen[r] {
			seen[r] = true
			found = append(found, fmt.Sprintf("%q (looks like %q)", r, ascii))
		}
	}
	return found
}

// stripInvisible removes zero-width and formatting unicode characters.
func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		if invisibleRunes[r] {
			return -1 // drop
		}
		return r
	}, s)
}

// stripConfusables replaces cross-script homoglyphs with ASCII equivalents.
func stripConfusables(s string) string {
	return strings.Map(func(r rune) rune {
		if ascii, ok := confusableMap[r]; ok {
			return ascii
		}
		return r
	}, s)
}

// confusableMap maps the most common cross-script homoglyphs to ASCII.
// Covers Cyrillic and Greek characters that visually resemble Latin letters.
var confusableMap = map[rune]rune{
	// Cyrillic → Latin
	'а': 'a', // а
	'е': 'e', // е
	'і': 'i', // і (Ukrainian)
	'о': 'o', // о
	'р': 'p', // р
	'с': 'c', // с
	'у': 'y', // у
	'х': 'x', // х
	'А': 'A', // А
	'В': 'B', // В
	'Е': 'E', // Е
	'К': 'K', // К
	'М': 'M', // М
	'Н': 'H', // Н
	'О': 'O', // О
	'Р': 'P', // Р
	'С': 'C', // С
	'Т': 'T', // Т
	'Х': 'X', // Х
	// Greek → Latin
	'α': 'a', // α
	'ε': 'e', // ε
	'ι': 'i', // ι
	'ο': 'o', // ο
	'ρ': 'p', // ρ
	'τ': 't', // τ (loose)
	'Α': 'A', // Α
	'Β': 'B', // Β
	'Ε': 'E', // Ε
	'Η': 'H', // Η
	'Ι': 'I', // Ι
	'Κ': 'K', // Κ
	'Μ': 'M', // Μ
	'Ν': 'N', // Ν
	'Ο': 'O', // Ο
	'Ρ': 'P', // Ρ
	'Τ': 'T', // Τ
	'Υ': 'Y', // Υ
	'Χ': 'X', // Χ
	// Greek question mark, visually identical to a semicolon
	';': ';',
}

// invisibleRunes is the set of zero-width and formatting unicode characters
// that are invisible in a terminal but change what the shell sees.
var invisibleRunes = map[rune]bool{
	'​': true, // zero-width space
	'‌': true, // zero-width non-joiner
	'‍': true, // zero-width joiner
	'\uFEFF': true, // zero-width no-break space (BOM)
	'­': true, // soft hyphen
	'͏': true, // combining grapheme joiner
	'؜': true, // arabic letter mark
	'⁠': true, // word joiner
	'⁡': true, // function application
	'⁢': true, // invisible times
	'⁣': true, // invisible separator
	'⁤': true, // invisible plus
	'‎': true, // left-to-right mark
	'‏': true, // right-to-left mark
	'‪': true, // left-to-right embedding
	'‫': true, // right-to-left embedding
	'‬': true, // pop directional formatting
	'‭': true, // left-to-right override
	'‮': true, // right-to-left override
}
