package vault

import (
	"strings"
	"time"
)

// DefaultDailyLayout is a Go time layout for dated note paths.
const DefaultDailyLayout = "Every day info/2006-01-02.md"

// DailyPath returns the vault path of the dated note for t, offset by days.
func DailyPath(layout string, t time.Time, days int) string {
	if layout == "" {
		layout = DefaultDailyLayout
	}
	p := t.AddDate(0, 0, days).Format(layout)
	if !strings.HasSuffix(strings.ToLower(p), ".md") {
		p += ".md"
	}
	return p
}
