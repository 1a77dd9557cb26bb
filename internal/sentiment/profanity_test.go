package sentiment

import "testing"

func TestMask(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean text untouched", "a lovely record", "a lovely record"},
		{"english word masked", "this is shit honestly", "this is **** honestly"},
		{"spanish word masked", "qué mierda de disco", "qué ****** de disco"},
		{"case insensitive", "SHIT happens", "**** happens"},
		{"whole word only", "shitake mushrooms", "shitake mushrooms"},
		{"multiple words", "fuck this shit", "**** this ****"},
		{"mask preserves rune length", "cabrón", "******"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mask(tt.in); got != tt.want {
				t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCountMatches(t *testing.T) {
	if got := CountMatches("clean as a whistle"); got != 0 {
		t.Errorf("expected 0 matches, got %d", got)
	}
	if got := CountMatches("fuck this shit"); got != 2 {
		t.Errorf("expected 2 matches, got %d", got)
	}
}
