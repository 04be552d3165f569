package domain

import "time"

// TimezoneName is the dashboard's fixed target timezone.
const TimezoneName = "Asia/Taipei"

// taipei is resolved once at startup. Taipei has no daylight saving, so the
// fixed UTC+8 zone is an exact substitute when host tzdata is missing.
var taipei = loadTaipei()

func loadTaipei() *time.Location {
	loc, err := time.LoadLocation(TimezoneName)
	if err != nil {
		return time.FixedZone(TimezoneName, 8*60*60)
	}
	return loc
}

// TaipeiDateKey formats t's calendar date in Asia/Taipei as "YYYY-MM-DD".
func TaipeiDateKey(t time.Time) string {
	return t.In(taipei).Format("2006-01-02")
}

// TaipeiYMD returns t's calendar date components in Asia/Taipei.
func TaipeiYMD(t time.Time) (year, month, day int) {
	lt := t.In(taipei)
	return lt.Year(), int(lt.Month()), lt.Day()
}

// TaipeiLocation exposes the resolved timezone for wall-clock scheduling.
func TaipeiLocation() *time.Location {
	return taipei
}
