package domain

import "math"

// z-score for a 95% confidence interval.
const wilsonZ = 1.96

// WilsonLowerBound returns the lower bound of the Wilson score interval for
// the approval proportion implied by like and dislike counts. Stories with no
// likes score zero, which keeps unrated stories at the bottom of any ranking.
func WilsonLowerBound(likes, dislikes int64) float64 {
	if likes <= 0 || dislikes < 0 {
		return 0
	}
	positive := float64(likes)
	total := positive + float64(dislikes)
	phat := positive / total
	a := phat + wilsonZ*wilsonZ/(2*total)
	b := wilsonZ * math.Sqrt((phat*(1-phat)+wilsonZ*wilsonZ/(4*total))/total)
	c := 1 + wilsonZ*wilsonZ/total
	return (a - b) / c
}
