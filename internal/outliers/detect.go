// Package outliers finds videos that beat their own channel's typical
// performance by a wide margin.
package outliers

import (
	"math"
	"sort"

	"nextvideo/internal/model"
)

const (
	DefaultThreshold = 3.0
	// MinSample is the fewest videos a median is computed over.
	MinSample = 3
)

// Median of values; 0 for an empty slice.
func Median(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
}

// Detect flags videos whose views are at least threshold times the median of
// videos. videos must all belong to one channel; ownerID and ownerTitle are
// copied onto every result. The result is sorted by multiplier, highest first.
func Detect(videos []model.VideoRecord, ownerID, ownerTitle string, threshold float64) []model.OutlierVideo {
	if len(videos) < MinSample {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	views := make([]int64, len(videos))
	for i, v := range videos {
		views[i] = v.ViewCount
	}
	med := Median(views)
	if med == 0 {
		return nil
	}

	var out []model.OutlierVideo
	for _, v := range videos {
		ratio := float64(v.ViewCount) / med
		if ratio < threshold {
			continue
		}
		out = append(out, model.OutlierVideo{
			VideoRecord:  v,
			Multiplier:   math.Round(ratio*10) / 10,
			ChannelID:    ownerID,
			ChannelTitle: ownerTitle,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Multiplier > out[j].Multiplier })
	return out
}

// Rank merges per-channel outlier sets, orders them by multiplier (ties keep
// input order) and keeps at most limit. limit <= 0 keeps everything.
func Rank(sets [][]model.OutlierVideo, limit int) []model.OutlierVideo {
	var all []model.OutlierVideo
	for _, s := range sets {
		all = append(all, s...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Multiplier > all[j].Multiplier })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}
