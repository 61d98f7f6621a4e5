package extractor

import (
	"fmt"
	"strconv"
)

// columnNames names each header cell. Blank cells become "Unnamed: <i>" and
// repeated names get ".1", ".2", ... in order of appearance.
func columnNames(header []string) []string {
	names := make([]string, len(header))
	taken := make(map[string]struct{}, len(header))
	counts := make(map[string]int, len(header))

	for i, h := range header {
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		if _, dup := taken[name]; dup {
			n := counts[h]
			for {
				n++
				name = h + "." + strconv.Itoa(n)
				if _, dup := taken[name]; !dup {
					break
				}
			}
			counts[h] = n
		}
		taken[name] = struct{}{}
		names[i] = name
	}
	return names
}

func indexOf(names []string, column string) int {
	for i, n := range names {
		if n == column {
			return i
		}
	}
	return -1
}
