package report

import (
	"time"
)

// trendDays is the length of every trailing trend window
const trendDays = 7

// lastDays returns the n calendar days ending on now's day, oldest first,
// as midnights in now's location
func lastDays(now time.Time, n int) []time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = time.Date(y, m, d-(n-1-i), 0, 0, 0, 0, loc)
	}
	return out
}

// dayKey formats t as a YYYY-MM-DD string in loc
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}

func mean(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// percent rounds part/total*100 half away from zero, 0 when total is 0
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(part)*100/float64(total) + 0.5)
}
