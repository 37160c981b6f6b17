package i18n

import "time"

// Age returns a compact age such as "today" or "3d ago" for list columns.
func Age(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < 24*time.Hour:
		return T("common.age.today", "today")
	case d < 30*24*time.Hour:
		return Tf("common.age.days", "%dd ago", int(d.Hours()/24))
	case d < 365*24*time.Hour:
		return Tf("common.age.months", "%dmo ago", int(d.Hours()/(24*30)))
	default:
		return Tf("common.age.years", "%dy ago", int(d.Hours()/(24*365)))
	}
}
