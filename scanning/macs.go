package scanning

import (
	"regexp"
	"strings"
)

var macTokenRegex = regexp.MustCompile(`(?i)[0-9a-f]{2}(?::[0-9a-f]{2}){5}`)

// ExtractMACs - Find every six-octet colon-hex hardware address in command output.
// Results are lowercase, unique and in order of appearance. Runs of more than six
// octets (e.g. InfiniBand addresses) are not hardware addresses of this form and are skipped.
func ExtractMACs(output string) []string {
	macs := make([]string, 0)
	seen := make(map[string]bool)
	for _, span := range macTokenRegex.FindAllStringIndex(output, -1) {
		start, end := span[0], span[1]
		if start > 0 && isMACNeighbor(output[start-1]) {
			continue
		}
		if end < len(output) && isMACNeighbor(output[end]) {
			continue
		}
		mac := strings.ToLower(output[start:end])
		if seen[mac] {
			continue
		}
		seen[mac] = true
		macs = append(macs, mac)
	}
	return macs
}

// A token glued to one of these is part of something longer.
func isMACNeighbor(char byte) bool {
	switch {
	case char == ':':
		return true
	case char >= '0' && char <= '9':
		return true
	case char >= 'a' && char <= 'z':
		return true
	case char >= 'A' && char <= 'Z':
		return true
	}
	return false
}
