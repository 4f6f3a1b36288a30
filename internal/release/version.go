package release

import (
	"regexp"
	"strconv"
	"strings"
)

// Word boundaries do not work around underscores (a word character), and
// underscore-separated titles are common, so the token regexes anchor on an
// explicit separator class instead of \b.
var (
	versionTokenRe = regexp.MustCompile(`(?i)(?:^|[._\s-])v\.?(\d+(?:[._]\d+)*[a-z]?)(?:[._\s-]|$)`)
	buildTokenRe   = regexp.MustCompile(`(?i)(?:^|[._\s-])build[._ ]?(\d+)(?:[._\s-]|$)`)
	dlcRe          = regexp.MustCompile(`(?i)(?:^|[._\s-])(dlc|expansion|season[. _-]?pass|add[. _-]?on)(?:[._\s-]|$)`)
)

// ParseVersion extracts a version token from a release title: "v1.2.3" yields
// "1.2.3", "Build 4412" yields "build.4412". Returns "" when no token is found.
func ParseVersion(title string) string {
	if match := versionTokenRe.FindStringSubmatch(title); match != nil {
		return strings.ReplaceAll(strings.ReplaceAll(match[1], "_", "."), " ", "")
	}
	if match := buildTokenRe.FindStringSubmatch(title); match != nil {
		return "build." + match[1]
	}
	return ""
}

// IsDLC reports whether a release title matches known DLC/expansion naming
// patterns.
func IsDLC(title string) bool {
	return dlcRe.MatchString(title)
}

// CompareVersions orders two version tokens: -1 when a < b, 0 when equal,
// 1 when a > b. Dot-separated segments compare numerically when both sides
// are numeric and lexicographically otherwise; a missing segment counts as
// zero. Empty strings compare lowest.
func CompareVersions(a, b string) int {
	a = strings.TrimSpace(strings.ToLower(a))
	b = strings.TrimSpace(strings.ToLower(b))
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}

	segsA := strings.Split(a, ".")
	segsB := strings.Split(b, ".")
	for i := 0; i < len(segsA) || i < len(segsB); i++ {
		segA, segB := "0", "0"
		if i < len(segsA) {
			segA = segsA[i]
		}
		if i < len(segsB) {
			segB = segsB[i]
		}
		if segA == segB {
			continue
		}
		numA, errA := strconv.Atoi(segA)
		numB, errB := strconv.Atoi(segB)
		if errA == nil && errB == nil {
			if numA < numB {
				return -1
			}
			return 1
		}
		if segA < segB {
			return -1
		}
		return 1
	}
	return 0
}
