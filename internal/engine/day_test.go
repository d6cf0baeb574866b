package engine

import (
	"testing"
	"time"
)

func TestDayOfTruncatesToMidnight(t *testing.T) {
	stamp := time.Date(2024, 5, 1, 23, 59, 59, 999, time.Local)
	day := DayOf(stamp)

	if day.Hour() != 0 || day.Minute() != 0 || day.Second() != 0 || day.Nanosecond() != 0 {
		t.Fatalf("expected midnight, got %v", day)
	}
	if day.Year() != 2024 || day.Month() != time.May || day.Day() != 1 {
		t.Fatalf("expected same calendar day, got %v", day)
	}
}

func TestSameDayIgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2024, 5, 1, 6, 0, 0, 0, time.Local)
	evening := time.Date(2024, 5, 1, 22, 30, 0, 0, time.Local)
	nextDay := time.Date(2024, 5, 2, 0, 0, 1, 0, time.Local)

	if !SameDay(morning, evening) {
		t.Fatal("expected same day for different times")
	}
	if SameDay(evening, nextDay) {
		t.Fatal("expected different days across midnight")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 5, 1, 23, 0, 0, 0, time.Local)
	b := time.Date(2024, 5, 4, 1, 0, 0, 0, time.Local)

	if got := DaysBetween(a, b); got != 3 {
		t.Fatalf("expected 3 days, got %d", got)
	}
	if got := DaysBetween(b, a); got != -3 {
		t.Fatalf("expected -3 days, got %d", got)
	}
}

func TestDaysBetweenAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	// 2024-03-10 美东进入夏令时，当天只有 23 小时
	before := time.Date(2024, 3, 9, 0, 0, 0, 0, loc)
	after := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)

	if got := DaysBetween(before, after); got != 1 {
		t.Fatalf("expected 1 day across DST transition, got %d", got)
	}
}

func TestStartOfWeekIsMonday(t *testing.T) {
	cases := map[string]string{
		"2024-04-29": "2024-04-29", // 周一
		"2024-05-01": "2024-04-29", // 周三
		"2024-05-05": "2024-04-29", // 周日仍属于当周
		"2024-05-06": "2024-05-06", // 下周一
	}

	for input, expected := range cases {
		day := fixedDay(t, input)
		if got := StartOfWeek(day); got.Format(DateFormat) != expected {
			t.Fatalf("StartOfWeek(%s) = %s, expected %s", input, got.Format(DateFormat), expected)
		}
	}
}
