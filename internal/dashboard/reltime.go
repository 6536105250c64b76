package dashboard

import (
	"strconv"
	"time"
)

// RelativeTime renders t relative to now ("5 minutes ago", "Yesterday").
// Times in the future render as the empty string.
func RelativeTime(now, t time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		return ""
	}

	days := int(diff / (24 * time.Hour))
	secs := int((diff % (24 * time.Hour)) / time.Second)

	if days == 0 {
		switch {
		case secs < 10:
			return "Just Now"
		case secs < 60:
			return strconv.Itoa(secs) + " seconds ago"
		case secs < 120:
			return "a minute ago"
		case secs < 3600:
			return strconv.Itoa(secs/60) + " minutes ago"
		case secs < 7200:
			return "an hour ago"
		default:
			return strconv.Itoa(secs/3600) + " hours ago"
		}
	}
	if days == 1 {
		return "Yesterday"
	}
	if days < 7 {
		return strconv.Itoa(days) + " days ago"
	}
	return strconv.Itoa(days/7) + " weeks ago"
}
