// Package naming converts raw file and directory names from the sample
// programs archive into canonical keys and human-readable names.
package naming

import (
	"strings"
	"unicode"
)

// Ext returns the extension of name, including the leading dot.
// Leading dots are not extension separators: Ext(".gitignore") is "".
func Ext(name string) string {
	_, ext := splitExt(name)
	return ext
}

// Stem strips every extension from a file name, so
// "hello-world.8xp.txt" becomes "hello-world".
func Stem(fileName string) string {
	stem, _ := splitExt(fileName)
	for strings.Contains(strings.TrimLeft(stem, "."), ".") {
		next, ext := splitExt(stem)
		if ext == "" {
			break
		}
		stem = next
	}
	return stem
}

func splitExt(name string) (root, ext string) {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return name, ""
	}
	// A name made only of leading dots before the last one has no extension.
	if strings.TrimLeft(name[:dot], ".") == "" {
		return name, ""
	}
	return name[:dot], name[dot:]
}

// Normalize converts a file stem into a canonical hyphenated, lower-case key.
//
// Rules, first match wins:
//   - the stem already contains a hyphen: lower-case it;
//   - the stem contains an underscore: underscores become hyphens;
//   - otherwise the stem is camel or Pascal case and a hyphen is inserted at
//     every word boundary.
func Normalize(stem string) string {
	switch {
	case strings.Contains(stem, "-"):
		return strings.ToLower(stem)
	case strings.Contains(stem, "_"):
		return strings.ToLower(strings.ReplaceAll(stem, "_", "-"))
	default:
		return strings.ToLower(splitCamel(stem))
	}
}

// splitCamel inserts a hyphen before an upper-case letter or digit that
// follows a lower-case letter, and before an upper-case letter (other than
// the first rune) that starts a lower-case run: "HelloWorld" -> "Hello-World",
// "JSONParser" -> "JSON-Parser", "Rot13" -> "Rot-13".
func splitCamel(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			afterLower := unicode.IsLower(prev) && (unicode.IsUpper(r) || unicode.IsDigit(r))
			startsWord := unicode.IsUpper(r) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if afterLower || startsWord {
				b.WriteByte('-')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Title upper-cases the first letter of every run of letters and lower-cases
// the rest, so "hello world" becomes "Hello World" and "rot13x" becomes "Rot13X".
func Title(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// ProjectName formats a project key for display. Keys of three characters or
// fewer are assumed to be acronyms: "mst" -> "MST", "hello-world" -> "Hello World".
func ProjectName(key string) string {
	if len(key) <= 3 {
		return strings.ToUpper(key)
	}
	return Title(strings.ReplaceAll(key, "-", " "))
}

var languageSymbols = map[string]string{
	"plus":  "+",
	"sharp": "#",
	"star":  "*",
}

// LanguageName formats a language directory name for display:
// "google-apps-script" -> "Google Apps Script", "c-sharp" -> "C#",
// "c-plus-plus" -> "C++". When any symbol token is present the tokens are
// concatenated without spaces.
func LanguageName(key string) string {
	tokens := strings.Split(key, "-")
	hasSymbol := false
	for i, tok := range tokens {
		if sym, ok := languageSymbols[tok]; ok {
			tokens[i] = sym
			hasSymbol = true
		}
	}
	if hasSymbol {
		return Title(strings.Join(tokens, ""))
	}
	return Title(strings.Join(tokens, " "))
}
