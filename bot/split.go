package bot

import "strings"

// maxMessageLen is telegram's message text limit, counted in UTF-16 code units.
const maxMessageLen = 4096

// utf16Len counts r the way telegram does: runes outside the BMP (most emoji)
// take two units.
func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

// splitText cuts text into parts of at most limit units, breaking between
// lines where possible. A single line longer than limit is cut mid-line.
// It always returns at least one part.
func splitText(text string, limit int) []string {
	var (
		parts []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
			n = 0
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		size := 0
		for _, r := range line {
			size += utf16Len(r)
		}
		if n+size > limit {
			flush()
		}
		if size <= limit {
			cur.WriteString(line)
			n += size
			continue
		}
		for _, r := range line {
			if n+utf16Len(r) > limit {
				flush()
			}
			cur.WriteRune(r)
			n += utf16Len(r)
		}
	}
	flush()
	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}
