// Package readtime estimates article reading time from stored HTML.
package readtime

import (
	"fmt"

	"github.com/mutualsplus/site/internal/pkg/htmltext"
)

// WordsPerMinute is the assumed reading speed.
const WordsPerMinute = 200

// Minutes returns ceil(words / WordsPerMinute) for the visible text of content,
// never less than 1.
func Minutes(content string) int {
	words := htmltext.WordCount(content)
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Label formats the estimate as "N min read".
func Label(content string) string {
	return fmt.Sprintf("%d min read", Minutes(content))
}
