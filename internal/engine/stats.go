package engine

import "time"

// statsWindowDays 是完成率统计的滚动窗口长度（含今天的日历天数）。
const statsWindowDays = 30

// HabitStats 计算单个习惯的统计快照：近 30 个日历日的完成率、
// 本周（周一起算）打卡次数、累计打卡与经验值、最近一次打卡日期。
// 纯读取，无副作用；未知 ID 返回零值快照，兼容已删除习惯的过期引用。
// 累计口径受保留期清理约束，只覆盖仍在台账内的记录。
func (e *Engine) HabitStats(habitID string) Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.habitIndexLocked(habitID)
	if idx < 0 {
		return Stats{}
	}
	habit := e.habits[idx]

	today := DayOf(e.now())
	done := e.completedDaysLocked(habitID)

	scheduled := 0
	completed := 0
	for offset := statsWindowDays - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		if !habit.AppliesOn(day) {
			continue
		}
		scheduled++
		if done[day.Format(DateFormat)] {
			completed++
		}
	}

	stats := Stats{}
	if scheduled > 0 {
		stats.CompletionRate = float64(completed) / float64(scheduled)
	}

	weekStart := StartOfWeek(today)
	weekEnd := weekStart.AddDate(0, 0, 7)

	var last *time.Time
	for _, completion := range e.completions {
		if completion.HabitID != habitID {
			continue
		}

		stats.TotalCompletions += completion.Count

		day := DayOf(completion.Date)
		if !day.Before(weekStart) && day.Before(weekEnd) {
			stats.ThisWeekCompletions++
		}
		if last == nil || day.After(*last) {
			copied := day
			last = &copied
		}
	}

	stats.TotalXPEarned = stats.TotalCompletions * habit.XPReward
	stats.LastCompletedDate = last
	stats.CurrentStreak = e.currentStreakLocked(habit, today)
	stats.BestStreak = e.bestStreakLocked(habitID)

	return stats
}
