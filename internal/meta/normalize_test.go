package meta

import "testing"

var testArticles = []string{"THE", "EL", "LA", "LOS", "LAS", "LE", "LES", "OS", "AS", "O", "A"}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Pink Floyd", "PINK FLOYD"},
		{"underscores", "Pink_Floyd", "PINK FLOYD"},
		{"extra whitespace", "  Pink   Floyd  ", "PINK FLOYD"},
		{"already normalized", "PINK FLOYD", "PINK FLOYD"},
		{"empty", "", ""},
		{"unicode", "Björk", "BJÖRK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{"Pink_Floyd", "  The   Wall ", "AC/DC", "Björk", "love/hate"}
	for _, input := range inputs {
		once := NormalizeName(input)
		twice := NormalizeName(once)
		if once != twice {
			t.Errorf("NormalizeName not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestSortName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"leading the", "The Wall", "Wall, The"},
		{"lowercase article", "the wall", "wall, the"},
		{"spanish article", "Los Lobos", "Lobos, Los"},
		{"no article", "Pink Floyd", "Pink Floyd"},
		{"article mid-name", "Rage Against The Machine", "Rage Against The Machine"},
		{"article only", "The", "The"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SortName(tt.input, testArticles); got != tt.want {
				t.Errorf("SortName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Pink_Floyd", "Pink Floyd"},
		{"a\tb\nc", "a b c"},
		{"a\x00b", "ab"},
		{"  spaced  out  ", "spaced out"},
	}

	for _, tt := range tests {
		if got := CleanString(tt.input); got != tt.want {
			t.Errorf("CleanString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
