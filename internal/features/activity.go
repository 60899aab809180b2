package features

import (
	"sort"
)

// Weekend positions under the mod-7 day convention (term starts on a Monday,
// so positions 5 and 6 are Saturday and Sunday).
var weekendPositions = map[int]bool{5: true, 6: true}

// ActivityFeatures computes the activity and temporal feature group over
// canonical activity records with day offsets at or before asOfDay. An empty
// record set yields the defined neutral defaults, never an error: zeros for
// every feature except the -1 sentinels on first/last activity day.
func ActivityFeatures(records []ActivityRecord, asOfDay int) map[string]float64 {
	filtered := make([]ActivityRecord, 0, len(records))
	for _, r := range records {
		if r.DayOffset <= asOfDay {
			filtered = append(filtered, r)
		}
	}

	if len(filtered) == 0 {
		return map[string]float64{
			"days_active":               0,
			"total_clicks":              0,
			"unique_materials":          0,
			"activity_rate":             0,
			"avg_clicks_per_active_day": 0,
			"first_activity_day":        -1,
			"last_activity_day":         -1,
			"weekly_activity_std":       0,
			"activity_regularity":       0,
			"longest_inactivity_gap":    0,
			"weekend_activity_ratio":    0,
			"activity_trend":            0,
		}
	}

	clicksByDay := make(map[int]float64)
	sites := make(map[string]bool)
	var totalClicks float64
	for _, r := range filtered {
		clicksByDay[r.DayOffset] += float64(r.Weight)
		sites[r.SiteID] = true
		totalClicks += float64(r.Weight)
	}

	days := make([]int, 0, len(clicksByDay))
	for d := range clicksByDay {
		days = append(days, d)
	}
	sort.Ints(days)

	daysActive := float64(len(days))
	firstDay := days[0]
	lastDay := days[len(days)-1]

	// Denominator is the observed span, never less than one day.
	courseDays := lastDay - firstDay + 1
	if courseDays < 1 {
		courseDays = 1
	}

	features := map[string]float64{
		"days_active":               daysActive,
		"total_clicks":              totalClicks,
		"unique_materials":          float64(len(sites)),
		"activity_rate":             daysActive / float64(courseDays) * 100,
		"avg_clicks_per_active_day": totalClicks / daysActive,
		"first_activity_day":        float64(firstDay),
		"last_activity_day":         float64(lastDay),
	}

	// Weekly click totals, bucketed by floor(day/7) so pre-term days fall
	// into negative weeks.
	weekly := make(map[int]float64)
	for d, clicks := range clicksByDay {
		weekly[floorDiv(d, 7)] += clicks
	}
	weeklyValues := make([]float64, 0, len(weekly))
	for _, v := range weekly {
		weeklyValues = append(weeklyValues, v)
	}
	features["weekly_activity_std"] = popStd(weeklyValues)

	// Regularity and longest gap, from gaps between consecutive active days.
	if len(days) > 1 {
		gaps := make([]float64, 0, len(days)-1)
		longest := 0.0
		for i := 1; i < len(days); i++ {
			gap := float64(days[i] - days[i-1])
			gaps = append(gaps, gap)
			if gap > longest {
				longest = gap
			}
		}
		features["activity_regularity"] = 1 / (mean(gaps) + 1) * 100
		features["longest_inactivity_gap"] = longest
	} else {
		features["activity_regularity"] = 0
		features["longest_inactivity_gap"] = 0
	}

	weekendDays := 0
	for _, d := range days {
		if weekendPositions[posMod(d, 7)] {
			weekendDays++
		}
	}
	features["weekend_activity_ratio"] = float64(weekendDays) / daysActive

	// Slope of daily click totals against day offset; flat by definition
	// with fewer than 2 active days.
	if len(days) > 1 {
		x := make([]float64, len(days))
		y := make([]float64, len(days))
		for i, d := range days {
			x[i] = float64(d)
			y[i] = clicksByDay[d]
		}
		features["activity_trend"] = olsSlope(x, y)
	} else {
		features["activity_trend"] = 0
	}

	return features
}
