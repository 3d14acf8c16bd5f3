// README: Restricted-zone record (no-parking/no-stopping areas with time windows).
package zones

import (
	"time"

	"safeparking/internal/types"
)

type Zone struct {
	ID       types.ID    `json:"id"`
	Name     string      `json:"name"`
	Address  string      `json:"address,omitempty"`
	Position types.Point `json:"position"`
	// Days is "매일" or a list of weekday characters ("월화수목금").
	Days string `json:"days,omitempty"`
	// StartHHMM / EndHHMM bound the restricted window, e.g. "0700"–"2100".
	StartHHMM string `json:"startHHMM,omitempty"`
	EndHHMM   string `json:"endHHMM,omitempty"`
}

var weekdayChars = map[time.Weekday]string{
	time.Sunday:    "일",
	time.Monday:    "월",
	time.Tuesday:   "화",
	time.Wednesday: "수",
	time.Thursday:  "목",
	time.Friday:    "금",
	time.Saturday:  "토",
}

// RestrictedAt reports whether the zone's restriction applies at t.
func (z Zone) RestrictedAt(t time.Time) bool {
	hhmm := t.Format("1504")
	if z.StartHHMM != "" && hhmm < z.StartHHMM {
		return false
	}
	if z.EndHHMM != "" && hhmm > z.EndHHMM {
		return false
	}
	days := z.Days
	if days == "" || days == "매일" || days == "전일" {
		return true
	}
	return containsDay(days, weekdayChars[t.Weekday()])
}

func containsDay(days, day string) bool {
	for _, r := range days {
		if string(r) == day {
			return true
		}
	}
	return false
}
