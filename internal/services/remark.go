package services

import (
	"regexp"
	"strconv"
)

var acoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ACO\s+Ref\s*:\s*(\d+)`),
	regexp.MustCompile(`(?i)ACO\s+Reference\s*:\s*(\d+)`),
	regexp.MustCompile(`(?i)ACO\s*:\s*(\d+)`),
	regexp.MustCompile(`(?i)ACO\s+(\d+)`),
	regexp.MustCompile(`(?i)Ref\s*:\s*(\d+)`),
}

var grnPattern = regexp.MustCompile(`(?i)Material\s+GRN\s*-\s*(\w+)`)

// ParseACORef returns the ACO order reference carried in a pallet remark.
// Patterns are tried in order; the first match wins.
func ParseACORef(remark string) (int, bool) {
	for _, p := range acoPatterns {
		m := p.FindStringSubmatch(remark)
		if m == nil {
			continue
		}
		ref, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return ref, true
	}
	return 0, false
}

// ParseGRNRef returns the GRN number of a material GRN pallet remark
func ParseGRNRef(remark string) (string, bool) {
	m := grnPattern.FindStringSubmatch(remark)
	if m == nil {
		return "", false
	}
	return m[1], true
}
