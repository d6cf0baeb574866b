package engine

import (
	"slices"
	"time"
)

// maxStreakLookback 限制回溯扫描的天数上限，防御异常数据下的死循环。
const maxStreakLookback = 365

// CurrentStreak 返回当前连胜：从今天起逐日回溯，
// 周期不命中的日子直接跳过（既不中断也不累计）；
// 命中且已打卡则 +1；今天命中但还没打卡不算中断（尚未到截止），
// 过去某天命中却没打卡即为断签，停止回溯。从未打卡的习惯返回 0。
func (e *Engine) CurrentStreak(habitID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.habitIndexLocked(habitID)
	if idx < 0 {
		return 0
	}
	return e.currentStreakLocked(e.habits[idx], DayOf(e.now()))
}

// BestStreak 返回历史最长连胜。与 CurrentStreak 不同，这里不看周期，
// 只对去重排序后的打卡日期做连续性扫描——两者的不对称是沿用既有产品
// 行为的刻意保留，调整前需先确认产品意图。
func (e *Engine) BestStreak(habitID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bestStreakLocked(habitID)
}

func (e *Engine) currentStreakLocked(habit Habit, today time.Time) int {
	done := e.completedDaysLocked(habit.ID)

	streak := 0
	day := today
	for i := 0; i < maxStreakLookback; i++ {
		if habit.AppliesOn(day) {
			if done[day.Format(DateFormat)] {
				streak++
			} else if !day.Equal(today) {
				break
			}
		}
		day = day.AddDate(0, 0, -1)
	}

	return streak
}

func (e *Engine) bestStreakLocked(habitID string) int {
	days := make([]time.Time, 0)
	seen := make(map[string]struct{})
	for _, completion := range e.completions {
		if completion.HabitID != habitID {
			continue
		}
		day := DayOf(completion.Date)
		key := day.Format(DateFormat)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, day)
	}

	if len(days) == 0 {
		return 0
	}

	slices.SortFunc(days, func(a, b time.Time) int {
		return a.Compare(b)
	})

	best := 1
	run := 1
	for i := 1; i < len(days); i++ {
		if DaysBetween(days[i-1], days[i]) == 1 {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 1
		}
	}

	return best
}

func (e *Engine) completedDaysLocked(habitID string) map[string]bool {
	done := make(map[string]bool)
	for _, completion := range e.completions {
		if completion.HabitID == habitID {
			done[DayOf(completion.Date).Format(DateFormat)] = true
		}
	}
	return done
}
