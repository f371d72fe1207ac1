package expense

import "time"

// monthTabLayout is the worksheet title layout for monthly tabs, e.g.
// "August 2026".
const monthTabLayout = "January 2006"

// defaultSheetTitle is the spreadsheet's default tab, which never holds
// expense data and is skipped when looking for previous months.
const defaultSheetTitle = "Sheet1"

// MonthTab returns the worksheet title for the month containing t.
func MonthTab(t time.Time) string {
	return t.Format(monthTabLayout)
}

// ParseMonthTab reports whether a worksheet title is a monthly tab and
// returns the month it names.
func ParseMonthTab(title string) (time.Time, bool) {
	if title == defaultSheetTitle {
		return time.Time{}, false
	}
	parsed, err := time.Parse(monthTabLayout, title)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
