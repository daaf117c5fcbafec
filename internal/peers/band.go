// Package peers picks the subscriber band one tier ahead of a channel and
// finds candidate channels inside it.
package peers

import (
	"strconv"
	"strings"

	"nextvideo/internal/model"
)

// Tier maps every subscriber count below Below (and at or above the previous
// tier's Below) to Band. The last tier has Below == 0 and catches the rest.
type Tier struct {
	Below int64
	Band  model.PeerBand
}

var tiers = []Tier{
	{Below: 100, Band: model.PeerBand{Min: 100, Max: 1_000}},
	{Below: 500, Band: model.PeerBand{Min: 500, Max: 5_000}},
	{Below: 1_000, Band: model.PeerBand{Min: 1_000, Max: 10_000}},
	{Below: 5_000, Band: model.PeerBand{Min: 5_000, Max: 25_000}},
	{Below: 10_000, Band: model.PeerBand{Min: 10_000, Max: 50_000}},
	{Below: 50_000, Band: model.PeerBand{Min: 50_000, Max: 200_000}},
	{Below: 100_000, Band: model.PeerBand{Min: 100_000, Max: 500_000}},
	{Below: 500_000, Band: model.PeerBand{Min: 500_000, Max: 2_000_000}},
	{Below: 0, Band: model.PeerBand{Min: 1_000_000, Max: 10_000_000}},
}

// Tiers returns a copy of the bucket table in selection order.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// SelectBand returns the peer band for a channel with subs subscribers.
// Negative counts are treated as zero.
func SelectBand(subs int64) model.PeerBand {
	for _, t := range tiers {
		if t.Below == 0 || subs < t.Below {
			return t.Band
		}
	}
	return tiers[len(tiers)-1].Band
}

// FormatCount renders a subscriber or view count for display:
// 12345 -> "12.3K", 2000000 -> "2M".
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return compact(float64(n)/1_000_000) + "M"
	case n >= 1_000:
		return compact(float64(n)/1_000) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

func compact(f float64) string {
	s := strconv.FormatFloat(f, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}
