package player

import (
	"fmt"
	"strings"
	"time"
)

const barWidth = 22

// ProgressBar renders a fixed-width bar with a marker at the played/unplayed
// boundary. Unknown or zero total degrades to an empty string.
func ProgressBar(elapsed, total time.Duration) string {
	if total <= 0 {
		return ""
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}

	filled := int(int64(elapsed) * barWidth / int64(total))
	if filled >= barWidth {
		filled = barWidth - 1
	}
	return strings.Repeat("▬", filled) + "🔘" + strings.Repeat("▬", barWidth-filled-1)
}

// FormatTimestamp renders a duration as `m:ss`, minutes unpadded.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatProgress renders the `elapsed / total` timestamp pair.
func FormatProgress(elapsed, total time.Duration) string {
	return FormatTimestamp(elapsed) + " / " + FormatTimestamp(total)
}
