package engine

import "time"

// Schedule 表示习惯的打卡周期，取值是一个封闭集合。
// weekly 以习惯创建日所在的星期几为锚点；custom 目前等同每天适用，
// 后续如需按星期几勾选再扩展配置字段。
type Schedule string

const (
	ScheduleDaily    Schedule = "daily"
	ScheduleWeekdays Schedule = "weekdays"
	ScheduleWeekends Schedule = "weekends"
	ScheduleWeekly   Schedule = "weekly"
	ScheduleCustom   Schedule = "custom"
)

// Valid 检查周期取值是否在支持的集合内。
func (s Schedule) Valid() bool {
	switch s {
	case ScheduleDaily, ScheduleWeekdays, ScheduleWeekends, ScheduleWeekly, ScheduleCustom:
		return true
	}
	return false
}

// Habit 定义习惯模型。
// ID 与 CreatedDate 创建后不再变化，CreatedDate 同时是 weekly 周期的锚点。
// Dimension 用于分类筛选，不参与任何计算；TargetCount 仅存储展示，不做强制。
// ReminderTime/ReminderEnabled 原样透传给提醒层，引擎不解释。
type Habit struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Dimension       string    `json:"dimension"`
	Schedule        Schedule  `json:"schedule"`
	XPReward        int       `json:"xp_reward"`
	TargetCount     int       `json:"target_count"`
	CreatedDate     time.Time `json:"created_date"`
	IsArchived      bool      `json:"is_archived"`
	ReminderTime    *string   `json:"reminder_time,omitempty"`
	ReminderEnabled bool      `json:"reminder_enabled"`
}

// AppliesOn 判断习惯在指定日期是否需要打卡。纯函数，对所有输入都有定义。
func (h Habit) AppliesOn(day time.Time) bool {
	weekday := DayOf(day).Weekday()

	switch h.Schedule {
	case ScheduleDaily:
		return true
	case ScheduleWeekdays:
		return weekday != time.Saturday && weekday != time.Sunday
	case ScheduleWeekends:
		return weekday == time.Saturday || weekday == time.Sunday
	case ScheduleWeekly:
		return weekday == DayOf(h.CreatedDate).Weekday()
	case ScheduleCustom:
		return true
	default:
		return false
	}
}

// Completion 记录一次打卡。
// Date 只按天比较；Count 支持一天内多次部分完成的累计；Note 为备注，原样存储。
type Completion struct {
	ID      string    `json:"id"`
	HabitID string    `json:"habit_id"`
	Date    time.Time `json:"date"`
	Count   int       `json:"count"`
	Note    string    `json:"note,omitempty"`
}

// Stats 汇总单个习惯的统计快照，按需计算，不落库。
type Stats struct {
	CurrentStreak       int        `json:"current_streak"`
	BestStreak          int        `json:"best_streak"`
	TotalCompletions    int        `json:"total_completions"`
	CompletionRate      float64    `json:"completion_rate"`
	TotalXPEarned       int        `json:"total_xp_earned"`
	ThisWeekCompletions int        `json:"this_week_completions"`
	LastCompletedDate   *time.Time `json:"last_completed_date,omitempty"`
}

// CompletionEvent 是引擎对外发出的唯一信号，
// 游戏化层（经验值/徽章）订阅该事件，不依赖引擎内部的连胜计算。
type CompletionEvent struct {
	HabitID   string    `json:"habit_id"`
	XPReward  int       `json:"xp_reward"`
	Timestamp time.Time `json:"timestamp"`
}

// EventSink 接收打卡事件。实现方不得阻塞。
type EventSink interface {
	HabitCompleted(event CompletionEvent)
}

// SinkFunc 把函数适配成 EventSink。
type SinkFunc func(event CompletionEvent)

// HabitCompleted 实现 EventSink。
func (f SinkFunc) HabitCompleted(event CompletionEvent) {
	f(event)
}
