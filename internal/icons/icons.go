// Package icons provides terminal glyphs with graceful fallback for
// terminals without nerd fonts or emoji support.
package icons

// Style represents the icon style to use.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleNone    Style = "none"
)

// Icons holds the icon characters for the current style.
type Icons struct {
	Audio      string
	Video      string
	Photo      string
	Shuffle    string
	Repeat     string
	Volume     string
	VolumeMute string
}

var (
	nerdIcons = Icons{
		Audio:      "", // nf-fa-music
		Video:      "", // nf-fa-video_camera
		Photo:      "", // nf-fa-image
		Shuffle:    "󰒟",      // nf-md-shuffle
		Repeat:     "󰑖",      // nf-md-repeat
		Volume:     "󰕾",      // nf-md-volume_high
		VolumeMute: "󰖁",      // nf-md-volume_off
	}

	unicodeIcons = Icons{
		Audio:      "🎵",
		Video:      "🎬",
		Photo:      "🖼",
		Shuffle:    "🔀",
		Repeat:     "🔁",
		Volume:     "🔊",
		VolumeMute: "🔇",
	}

	noneIcons = Icons{
		Audio:      "",
		Video:      "",
		Photo:      "",
		Shuffle:    "[S]",
		Repeat:     "[R]",
		Volume:     "vol",
		VolumeMute: "mute",
	}

	// current holds the active icon set
	current = noneIcons
)

// Init initializes the icons based on the style.
// Call this once at startup with the config value.
func Init(style string) {
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
	case StyleUnicode:
		current = unicodeIcons
	default:
		current = noneIcons
	}
}

// Audio returns the audio item icon, empty for plain style.
func Audio() string {
	return current.Audio
}

// Video returns the video item icon, empty for plain style.
func Video() string {
	return current.Video
}

// Photo returns the photo item icon, empty for plain style.
func Photo() string {
	return current.Photo
}

// Shuffle returns the shuffle icon.
func Shuffle() string {
	return current.Shuffle
}

// Repeat returns the queue loop icon.
func Repeat() string {
	return current.Repeat
}

// Volume returns the volume icon.
func Volume() string {
	return current.Volume
}

// VolumeMute returns the muted volume icon.
func VolumeMute() string {
	return current.VolumeMute
}
