package frame

import "github.com/danmuck/imgauge/internal/protocol"

// GroupLines splits lines into footer-terminated groups. Each group keeps
// its EN line; lines after the last footer belong to a transmission still in
// progress and are dropped.
func GroupLines(lines []string) [][]string {
	var groups [][]string
	start := 0
	for i, line := range lines {
		if !protocol.IsFooter(line) {
			continue
		}
		group := make([]string, i+1-start)
		copy(group, lines[start:i+1])
		groups = append(groups, group)
		start = i + 1
	}
	return groups
}
