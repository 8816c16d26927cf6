package utils

import "strings"

// USSDMaxLength is the largest reply body most USSD gateways will render.
// Longer replies are silently truncated by the network, so we clamp them
// ourselves and keep the cut on a line boundary where possible.
const USSDMaxLength = 182

// ClampUSSD shortens text to fit a single USSD screen. The limit excludes
// the CON/END envelope prefix, which the adapter adds afterwards.
func ClampUSSD(text string) string {
	return Clamp(text, USSDMaxLength)
}

// Clamp shortens text to at most max runes, preferring to cut at the last
// full line and marking the cut with an ellipsis.
func Clamp(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	cut := string(runes[:max-3])
	if idx := strings.LastIndexByte(cut, '\n'); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
