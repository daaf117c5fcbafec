// Package catalog filters a fetched upload list down to the videos outlier
// detection should look at.
package catalog

import (
	"regexp"
	"strconv"
	"time"

	"nextvideo/internal/model"
)

const (
	MinDuration = 60 * time.Second
	// Lookback is how far back a video may have been published, in months.
	Lookback = 12
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration reads an ISO-8601 duration such as "PT1H2M3S". Anything it
// cannot read, including nil, is zero.
func ParseDuration(s *string) time.Duration {
	if s == nil {
		return 0
	}
	m := isoDuration.FindStringSubmatch(*s)
	if m == nil {
		return 0
	}
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0
		}
		d += time.Duration(n) * unit
	}
	return d
}

// Normalize drops shorts and videos published more than Lookback months
// before now. An unreadable duration never excludes a video on its own.
// Order is preserved.
func Normalize(videos []model.VideoRecord, now time.Time) []model.VideoRecord {
	cutoff := now.AddDate(0, -Lookback, 0)
	out := make([]model.VideoRecord, 0, len(videos))
	for _, v := range videos {
		if v.PublishedAt.Before(cutoff) {
			continue
		}
		if d := ParseDuration(v.Duration); d > 0 && d < MinDuration {
			continue
		}
		out = append(out, v)
	}
	return out
}
