package release

import (
	"regexp"
	"strconv"
	"strings"

	"ludo/internal/indexer"
)

// SeederHealth is a presentation/ranking tier derived from seeder counts. It
// never auto-rejects a release.
type SeederHealth string

const (
	HealthHealthy  SeederHealth = "healthy"
	HealthMarginal SeederHealth = "marginal"
	HealthRisky    SeederHealth = "risky"
)

const (
	healthyThreshold  = 20
	marginalThreshold = 5
)

// categoryNames maps known indexer category ids to display names. The first
// recognized id on a release wins; unknown ids surface as the raw number.
var categoryNames = map[int]string{
	1000: "Console",
	4000: "PC",
	4050: "PC/Games",
	4030: "PC/ISO",
	4070: "PC/Mobile-Games",
	2000: "Movies",
	8010: "Misc",
}

var qualityPatterns = []struct {
	re    *regexp.Regexp
	label string
	rank  int
}{
	{regexp.MustCompile(`(?i)\bgog\b|\bdrm[. -]?free\b`), "gog", 3},
	{regexp.MustCompile(`(?i)\brepack\b`), "repack", 2},
	{regexp.MustCompile(`(?i)\bproper\b`), "scene-proper", 2},
	{regexp.MustCompile(`(?i)-(codex|skidrow|plaza|reloaded|flt|empress|tenoke|rune|razor1911|hoodlum|cpy)\b`), "scene", 1},
}

var qualityRanks = map[string]int{
	"gog":          3,
	"repack":       2,
	"scene-proper": 2,
	"scene":        1,
}

// Classified is a read-only scoring of a raw release against a target game.
type Classified struct {
	indexer.Release
	Quality      string
	CategoryName string
	Health       SeederHealth
	Version      string
	IsDLC        bool
}

// Classify normalizes and scores raw releases. It performs no mutation and
// never rejects: malformed input degrades to unset fields.
func Classify(releases []indexer.Release) []Classified {
	out := make([]Classified, 0, len(releases))
	for _, rel := range releases {
		out = append(out, ClassifyOne(rel))
	}
	return out
}

// ClassifyOne scores a single release.
func ClassifyOne(rel indexer.Release) Classified {
	return Classified{
		Release:      rel,
		Quality:      QualityLabel(rel.Title),
		CategoryName: CategoryName(rel.Categories),
		Health:       Health(rel.Seeders),
		Version:      ParseVersion(rel.Title),
		IsDLC:        IsDLC(rel.Title),
	}
}

// Health buckets a seeder count into a presentation tier.
func Health(seeders int) SeederHealth {
	switch {
	case seeders >= healthyThreshold:
		return HealthHealthy
	case seeders >= marginalThreshold:
		return HealthMarginal
	default:
		return HealthRisky
	}
}

// CategoryName resolves the first recognized category id to its display name.
// When no id is recognized the first raw id is surfaced; empty input yields "".
func CategoryName(categories []int) string {
	for _, id := range categories {
		if name, ok := categoryNames[id]; ok {
			return name
		}
	}
	if len(categories) > 0 {
		return strconv.Itoa(categories[0])
	}
	return ""
}

// QualityLabel derives a normalized quality label from a release title, or ""
// when nothing is recognized.
func QualityLabel(title string) string {
	for _, pattern := range qualityPatterns {
		if pattern.re.MatchString(title) {
			return pattern.label
		}
	}
	return ""
}

// QualityRank orders quality labels for better-release comparisons. Unknown
// labels rank lowest.
func QualityRank(label string) int {
	return qualityRanks[strings.ToLower(strings.TrimSpace(label))]
}
