package catalog

import "regexp"

// The catalog encodes durations in the PT#H#M#S subset of ISO-8601.
var durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration converts a PT#H#M#S string to whole seconds. Absent
// components count as zero, and a string that does not match at all parses to
// zero rather than failing: duration is cosmetic metadata, a bad value should
// never sink the item carrying it.
func ParseISODuration(s string) int {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	return atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3])
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
