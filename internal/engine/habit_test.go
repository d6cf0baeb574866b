package engine

import (
	"testing"
	"time"
)

func TestScheduleValid(t *testing.T) {
	valid := []Schedule{ScheduleDaily, ScheduleWeekdays, ScheduleWeekends, ScheduleWeekly, ScheduleCustom}
	for _, schedule := range valid {
		if !schedule.Valid() {
			t.Fatalf("expected %s to be valid", schedule)
		}
	}

	for _, schedule := range []Schedule{"", "monthly", "DAILY", "every-other-day"} {
		if schedule.Valid() {
			t.Fatalf("expected %s to be invalid", schedule)
		}
	}
}

func TestAppliesOnDaily(t *testing.T) {
	habit := Habit{Schedule: ScheduleDaily}
	for offset := 0; offset < 7; offset++ {
		day := fixedDay(t, "2024-04-29").AddDate(0, 0, offset)
		if !habit.AppliesOn(day) {
			t.Fatalf("expected daily habit to apply on %v", day)
		}
	}
}

func TestAppliesOnWeekdaysAndWeekends(t *testing.T) {
	weekdays := Habit{Schedule: ScheduleWeekdays}
	weekends := Habit{Schedule: ScheduleWeekends}

	for offset := 0; offset < 7; offset++ {
		day := fixedDay(t, "2024-04-29").AddDate(0, 0, offset) // 周一起的一整周
		isWeekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday

		if weekdays.AppliesOn(day) == isWeekend {
			t.Fatalf("weekdays schedule wrong on %v", day)
		}
		if weekends.AppliesOn(day) != isWeekend {
			t.Fatalf("weekends schedule wrong on %v", day)
		}
	}
}

func TestAppliesOnWeeklyUsesCreationWeekday(t *testing.T) {
	// 创建于周三，只有周三适用
	habit := Habit{Schedule: ScheduleWeekly, CreatedDate: fixedDay(t, "2024-01-03")}

	if !habit.AppliesOn(fixedDay(t, "2024-01-10")) {
		t.Fatal("expected weekly habit to apply on anchor weekday")
	}
	if habit.AppliesOn(fixedDay(t, "2024-01-11")) {
		t.Fatal("expected weekly habit not to apply off anchor weekday")
	}

	// 创建日带时间成分也不影响锚点判断
	habit.CreatedDate = time.Date(2024, 1, 3, 23, 30, 0, 0, time.Local)
	if !habit.AppliesOn(fixedDay(t, "2024-01-17")) {
		t.Fatal("expected anchor weekday from normalized creation date")
	}
}

func TestAppliesOnCustomAlwaysDue(t *testing.T) {
	habit := Habit{Schedule: ScheduleCustom}
	for offset := 0; offset < 7; offset++ {
		if !habit.AppliesOn(fixedDay(t, "2024-04-29").AddDate(0, 0, offset)) {
			t.Fatal("expected custom schedule to apply every day")
		}
	}
}

func TestAppliesOnIsDeterministic(t *testing.T) {
	habit := Habit{Schedule: ScheduleWeekly, CreatedDate: fixedDay(t, "2024-01-03")}
	day := fixedDay(t, "2024-01-10")

	first := habit.AppliesOn(day)
	for i := 0; i < 10; i++ {
		if habit.AppliesOn(day) != first {
			t.Fatal("expected AppliesOn to be deterministic")
		}
	}
}

func TestAppliesOnUnknownScheduleNeverDue(t *testing.T) {
	habit := Habit{Schedule: "monthly"}
	if habit.AppliesOn(fixedDay(t, "2024-05-01")) {
		t.Fatal("expected unknown schedule to never apply")
	}
}
