package composer

import "strings"

// WordsPerMinute is the reading speed used for read-time estimates.
const WordsPerMinute = 200

// ReadTime estimates minutes to read content, rounded up. Non-empty
// content always takes at least one minute.
func ReadTime(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
