package engine

import "time"

// DateFormat 是对外交换日期时统一使用的格式。
const DateFormat = "2006-01-02"

// DayOf 将任意时间戳归一化为当天零点，全部日期比较都基于该规则。
// 混用原始时间戳与归一化日期是打卡类逻辑最主要的 bug 来源，
// 所以除本函数外不允许其他地方做日期截断。
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay 判断两个时间戳是否落在同一天。
func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}

// DaysBetween 返回两个日期相差的整天数（b-a）。
// 差值按日历日推算：夏令时切换造成的 23/25 小时日不影响结果。
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// StartOfWeek 返回所在周的周一零点。周以周一为起点，
// 与后台日历的周视图保持同一约定。
func StartOfWeek(t time.Time) time.Time {
	day := DayOf(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -weekday+1)
}
