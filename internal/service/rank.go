package service

import "fmt"

// RankResult is the competitive standing of one session.
type RankResult struct {
	Achieved      int     `json:"achieved"`
	TotalSessions int     `json:"totalSessions"`
	Rank          int     `json:"rank"`
	Percentile    float64 `json:"percentile"`
	Label         string  `json:"percentileRank"`
}

// newRankResult derives the percentile and its label. rank counts the sessions
// strictly ahead plus one, so tied sessions share a rank.
func newRankResult(achieved, rank, totalSessions int) RankResult {
	percentile := 100.0
	if totalSessions > 0 {
		percentile = float64(rank) / float64(totalSessions) * 100
	}

	return RankResult{
		Achieved:      achieved,
		TotalSessions: totalSessions,
		Rank:          rank,
		Percentile:    percentile,
		Label:         percentileLabel(achieved, percentile),
	}
}

// percentileLabel collapses the tails into a fixed 0.01% floor and ceiling.
func percentileLabel(achieved int, percentile float64) string {
	switch {
	case achieved == 0:
		return "bottom 0.01%"
	case percentile <= 0.01:
		return "top 0.01%"
	case percentile >= 99.99:
		return "bottom 0.01%"
	case percentile >= 50:
		return fmt.Sprintf("bottom %.2f%%", 100-percentile)
	default:
		return fmt.Sprintf("top %.2f%%", percentile)
	}
}
