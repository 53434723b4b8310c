// Package rank contains the pure scoring math for the directory. It has no
// persistence or transport dependencies so the formula can be tested and
// tuned in isolation.
//
// The popularity score is a logistic transform of recent engagement divided
// by a super-linear function of listing age. Dividing by (age+2)^1.5 gives
// identical engagement a higher score on newer listings (an explicit recency
// bias), and the sigmoid squashes the result into (0, 10), centered so that
// an engagement-to-age ratio of 3 maps to a score of 5.
package rank

import (
	"math"
	"time"
)

// Engagement weights. Upvotes are the strongest signal, a visit (click
// through to the tool) is worth five views, and a view counts once.
const (
	weightUpvotes = 10
	weightViews7d = 1
	weightClicks  = 5
)

// Shape of the logistic transform.
const (
	maxScore   = 10.0 // upper asymptote; scores live in (0, maxScore)
	steepness  = 0.8
	midpoint   = 3.0 // engagement/age ratio that yields maxScore/2
	ageOffset  = 2.0 // keeps the denominator non-zero for brand-new listings
	ageExpo    = 1.5
	hoursInDay = 24
)

// Score computes the bounded popularity score for one listing.
//
//	score = 10 / (1 + exp(-0.8 * ((u*10 + v7 + c7*5) / (age+2)^1.5 - 3)))
//
// ageDays is the listing age in whole days and is clamped to be non-negative.
// The function is pure and total: every input, including all-zero engagement,
// yields a finite score strictly inside (0, 10).
func Score(upvotes, views7d, clicks7d int64, ageDays float64) float64 {
	if ageDays < 0 {
		ageDays = 0
	}
	engagement := float64(upvotes)*weightUpvotes +
		float64(views7d)*weightViews7d +
		float64(clicks7d)*weightClicks
	ratio := engagement / math.Pow(ageDays+ageOffset, ageExpo)
	return maxScore / (1 + math.Exp(-steepness*(ratio-midpoint)))
}

// AgeDays returns the whole-day age of a listing created at createdAt as
// seen from now. Clock skew can make createdAt sit slightly in the future;
// the result is clamped to zero rather than letting a negative age inflate
// the score.
func AgeDays(createdAt, now time.Time) float64 {
	d := math.Floor(now.Sub(createdAt).Hours() / hoursInDay)
	if d < 0 {
		return 0
	}
	return d
}

// TrendingKey is the short-window engagement metric used by the trending
// sort: the same weights the score gives its rolling terms, without the age
// decay. Exposed for tests and for callers that rank in memory; the query
// engine computes the identical expression in SQL.
func TrendingKey(views7d, clicks7d int64) int64 {
	return views7d*weightViews7d + clicks7d*weightClicks
}
