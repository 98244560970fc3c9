package icons

import "testing"

func TestInitSelectsStyle(t *testing.T) {
	t.Cleanup(func() { Init("none") })

	tests := []struct {
		style   string
		shuffle string
	}{
		{"nerd", nerdIcons.Shuffle},
		{"unicode", unicodeIcons.Shuffle},
		{"none", noneIcons.Shuffle},
		{"bogus", noneIcons.Shuffle},
		{"", noneIcons.Shuffle},
	}

	for _, tt := range tests {
		Init(tt.style)
		if got := Shuffle(); got != tt.shuffle {
			t.Errorf("Init(%q): Shuffle() = %q, want %q", tt.style, got, tt.shuffle)
		}
	}
}

func TestNoneStyleHasNoKindIcons(t *testing.T) {
	t.Cleanup(func() { Init("none") })

	Init("none")
	if Audio() != "" || Video() != "" || Photo() != "" {
		t.Errorf("plain style should render no kind icons, got %q %q %q", Audio(), Video(), Photo())
	}
}

func TestVolumeIconsDiffer(t *testing.T) {
	t.Cleanup(func() { Init("none") })

	for _, style := range []string{"nerd", "unicode", "none"} {
		Init(style)
		if Volume() == VolumeMute() {
			t.Errorf("style %q: Volume() and VolumeMute() should differ", style)
		}
	}
}
