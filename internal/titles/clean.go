package titles

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Known release-group and scene tags stripped from folder and release names.
// Matching is case-insensitive. A legitimate title word that collides with a
// tag (a game literally named "Repack") will be over-stripped; manual match
// is the escape hatch, not a smarter heuristic.
var sceneTags = map[string]struct{}{
	"codex": {}, "skidrow": {}, "plaza": {}, "reloaded": {}, "flt": {},
	"empress": {}, "tenoke": {}, "rune": {}, "fitgirl": {}, "dodi": {},
	"razor1911": {}, "hoodlum": {}, "prophet": {}, "cpy": {}, "steamrip": {},
	"gog": {}, "drmfree": {}, "repack": {}, "proper": {}, "internal": {},
}

var platformTags = map[string]struct{}{
	"win": {}, "win32": {}, "win64": {}, "windows": {}, "linux": {},
	"macos": {}, "osx": {}, "x86": {}, "x64": {}, "amd64": {}, "arm64": {},
	"pc": {},
}

var (
	bracketRe = regexp.MustCompile(`\[[^\[\]]*\]|\([^()]*\)|\{[^{}]*\}`)
	// Version and build markers are removed before tokenization so dotted
	// versions are not split into stray numeric tokens. \b cannot anchor
	// these because underscores are word characters; an explicit separator
	// class handles underscore-joined names.
	versionRe   = regexp.MustCompile(`(?i)(?:^|[._\s-])v\.?\d+(?:[._]\d+)*[a-z]?(?:[._\s-]|$)`)
	buildRe     = regexp.MustCompile(`(?i)(?:^|[._\s-])build[._ ]?\d+(?:[._\s-]|$)`)
	multiLangRe = regexp.MustCompile(`(?i)^multi\d*$`)
	yearRe      = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	spacesRe    = regexp.MustCompile(`\s+`)
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// Clean normalizes a human-authored folder or release name into a best-effort
// game title: scene tags, platform tokens, version strings, language markers,
// and bracketed annotations are removed and separators collapse to single
// spaces. Clean is pure and idempotent: Clean(Clean(x)) == Clean(x).
func Clean(name string) string {
	// bracketRe only matches innermost pairs, so nested brackets need
	// repeated passes until the string stops changing.
	working := name
	for {
		next := bracketRe.ReplaceAllString(working, " ")
		if next == working {
			break
		}
		working = next
	}
	working = versionRe.ReplaceAllString(working, " ")
	working = buildRe.ReplaceAllString(working, " ")

	fields := strings.FieldsFunc(working, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == ' ' || r == '+'
	})

	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		lower := strings.ToLower(field)
		if _, ok := sceneTags[lower]; ok {
			continue
		}
		if _, ok := platformTags[lower]; ok {
			continue
		}
		if multiLangRe.MatchString(field) {
			continue
		}
		kept = append(kept, field)
	}

	cleaned := strings.TrimSpace(spacesRe.ReplaceAllString(strings.Join(kept, " "), " "))
	if cleaned == "" {
		return ""
	}
	return titleCaser.String(cleaned)
}

// ParseFolderName splits a folder name into a cleaned title and an optional
// release year found in the raw name. The year, when present, is removed from
// the title.
func ParseFolderName(name string) (string, int) {
	year := 0
	if match := yearRe.FindString(name); match != "" {
		if parsed, err := strconv.Atoi(match); err == nil {
			year = parsed
		}
	}

	cleaned := Clean(name)
	if year != 0 {
		fields := strings.Fields(cleaned)
		kept := fields[:0]
		for _, field := range fields {
			if field == strconv.Itoa(year) {
				continue
			}
			kept = append(kept, field)
		}
		cleaned = strings.Join(kept, " ")
	}
	return cleaned, year
}
