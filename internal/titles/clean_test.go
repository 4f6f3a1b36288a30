package titles

import "testing"

func TestClean(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hollow.Depths.v1.2-CODEX", "Hollow Depths"},
		{"Hollow_Depths_Build_1234_FitGirl", "Hollow Depths"},
		{"Stellar Drift [MULTi12] (RePack)", "Stellar Drift"},
		{"Stellar Drift [Deluxe [GOTY] Edition]", "Stellar Drift"},
		{"Stellar.Drift.MULTI5-PLAZA", "Stellar Drift"},
		{"Iron.Harvest.Win64.TENOKE", "Iron Harvest"},
		{"ashen keep v2.0.1b-SKIDROW", "Ashen Keep"},
		{"Plain Title", "Plain Title"},
		{"", ""},
		{"v1.0-CODEX", ""},
	}
	for _, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"Hollow.Depths.v1.2-CODEX",
		"Stellar Drift [MULTi12] (2021)",
		"Stellar Drift [Deluxe [GOTY] Edition]",
		"Iron_Harvest_Win64_Build_4412",
		"Plain Title",
		"UPPERCASE GAME",
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Fatalf("Clean not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestParseFolderName(t *testing.T) {
	title, year := ParseFolderName("Stellar.Drift.2021.v1.4-RUNE")
	if title != "Stellar Drift" {
		t.Fatalf("unexpected title %q", title)
	}
	if year != 2021 {
		t.Fatalf("unexpected year %d", year)
	}

	title, year = ParseFolderName("Hollow Depths")
	if title != "Hollow Depths" || year != 0 {
		t.Fatalf("unexpected parse %q %d", title, year)
	}
}
