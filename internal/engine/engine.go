package engine

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRetentionDays 是打卡记录的默认保留天数。
// 每次落盘前都会丢弃超期记录以约束存储规模，这会让 BestStreak 与
// CompletionRate 在长历史上失真，属于有意为之的取舍，不是 bug。
const DefaultRetentionDays = 90

var (
	// ErrHabitNameRequired 在习惯名称为空时返回
	ErrHabitNameRequired = errors.New("habit name is required")
	// ErrInvalidSchedule 在周期取值不在支持集合内时返回
	ErrInvalidSchedule = errors.New("invalid habit schedule")
	// ErrNegativeXPReward 在经验值奖励为负时返回
	ErrNegativeXPReward = errors.New("xp reward must not be negative")
)

// HabitInput 定义创建/更新习惯时可配置字段。
// ID、CreatedDate、归档状态不在其中：前两者创建后不可变，归档走单独操作。
type HabitInput struct {
	Name            string
	Description     string
	Dimension       string
	Schedule        Schedule
	XPReward        int
	TargetCount     int
	ReminderTime    *string
	ReminderEnabled bool
}

// Engine 持有习惯目录与打卡台账两份可变状态，
// 其余统计能力均为按需的纯计算。所有操作经由互斥锁串行化，
// 保证服务端并发调用不会产生重复或丢失的打卡记录。
type Engine struct {
	mu            sync.Mutex
	store         Store
	sink          EventSink
	now           func() time.Time
	retentionDays int

	habits      []Habit
	completions []Completion
}

// New 构造引擎并从存储加载两份集合。
// 加载失败按"空集合启动"降级处理并记录诊断日志，不阻塞启动。
func New(store Store) *Engine {
	e := &Engine{
		store:         store,
		now:           time.Now,
		retentionDays: DefaultRetentionDays,
	}

	habits, completions, err := store.Load()
	if err != nil {
		log.Printf("engine: load state failed, starting empty: %v", err)
		return e
	}

	e.habits = habits
	e.completions = completions
	return e
}

// SetEventSink 注入打卡事件的订阅方（经验值/徽章等游戏化层）。
func (e *Engine) SetEventSink(sink EventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

// SetRetentionDays 调整打卡记录保留天数，非正数回退默认值。
func (e *Engine) SetRetentionDays(days int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if days <= 0 {
		days = DefaultRetentionDays
	}
	e.retentionDays = days
}

// AddHabit 创建习惯，CreatedDate 取当天并同时作为 weekly 周期的锚点。
func (e *Engine) AddHabit(input HabitInput) (Habit, error) {
	if err := validateHabitInput(input); err != nil {
		return Habit{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	habit := Habit{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(input.Name),
		Description:     strings.TrimSpace(input.Description),
		Dimension:       strings.TrimSpace(input.Dimension),
		Schedule:        input.Schedule,
		XPReward:        input.XPReward,
		TargetCount:     input.TargetCount,
		CreatedDate:     DayOf(e.now()),
		ReminderTime:    input.ReminderTime,
		ReminderEnabled: input.ReminderEnabled,
	}

	restore := e.snapshotLocked()
	e.habits = append(e.habits, habit)

	if err := e.flushLocked(); err != nil {
		restore()
		return Habit{}, err
	}
	return habit, nil
}

// UpdateHabit 按 ID 整体替换可变字段；未知 ID 时静默跳过。
// ID 与 CreatedDate 不可变（后者是 weekly 周期的锚点），归档状态也不受影响。
func (e *Engine) UpdateHabit(id string, input HabitInput) error {
	if err := validateHabitInput(input); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.habitIndexLocked(id)
	if idx < 0 {
		return nil
	}

	restore := e.snapshotLocked()
	habit := &e.habits[idx]
	habit.Name = strings.TrimSpace(input.Name)
	habit.Description = strings.TrimSpace(input.Description)
	habit.Dimension = strings.TrimSpace(input.Dimension)
	habit.Schedule = input.Schedule
	habit.XPReward = input.XPReward
	habit.TargetCount = input.TargetCount
	habit.ReminderTime = input.ReminderTime
	habit.ReminderEnabled = input.ReminderEnabled

	if err := e.flushLocked(); err != nil {
		restore()
		return err
	}
	return nil
}

// ArchiveHabit 软删除：仅置归档标记，历史打卡保留，"待办"视图不再出现。
func (e *Engine) ArchiveHabit(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.habitIndexLocked(id)
	if idx < 0 || e.habits[idx].IsArchived {
		return nil
	}

	restore := e.snapshotLocked()
	e.habits[idx].IsArchived = true

	if err := e.flushLocked(); err != nil {
		restore()
		return err
	}
	return nil
}

// DeleteHabit 硬删除习惯并级联删除其全部打卡记录；未知 ID 时静默跳过。
func (e *Engine) DeleteHabit(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.habitIndexLocked(id)
	if idx < 0 {
		return nil
	}

	restore := e.snapshotLocked()
	e.habits = append(e.habits[:idx:idx], e.habits[idx+1:]...)

	kept := e.completions[:0:0]
	for _, completion := range e.completions {
		if completion.HabitID != id {
			kept = append(kept, completion)
		}
	}
	e.completions = kept

	if err := e.flushLocked(); err != nil {
		restore()
		return err
	}
	return nil
}

// CompleteHabit 以当天为日期记录一次打卡。
func (e *Engine) CompleteHabit(habitID string, count int, note string) (Completion, error) {
	return e.CompleteHabitOn(habitID, e.nowDay(), count, note)
}

// CompleteHabitOn 在指定日期记录打卡（支持补打卡）。
// count 非正时按 1 处理；未知习惯 ID 视为过期引用，静默返回零值。
// 新记录插入台账头部，"最近的打卡在最前"是被依赖的不变式。
// 事件在释放锁之后才发出，订阅方可以安全地回查引擎。
func (e *Engine) CompleteHabitOn(habitID string, day time.Time, count int, note string) (Completion, error) {
	completion, event, sink, err := e.recordCompletionOn(habitID, day, count, note)
	if err == nil && sink != nil && event != nil {
		sink.HabitCompleted(*event)
	}
	return completion, err
}

func (e *Engine) recordCompletionOn(habitID string, day time.Time, count int, note string) (Completion, *CompletionEvent, EventSink, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.habitIndexLocked(habitID)
	if idx < 0 {
		return Completion{}, nil, nil, nil
	}

	if count < 1 {
		count = 1
	}

	completion := Completion{
		ID:      uuid.NewString(),
		HabitID: habitID,
		Date:    DayOf(day),
		Count:   count,
		Note:    note,
	}

	restore := e.snapshotLocked()
	e.completions = append([]Completion{completion}, e.completions...)

	if err := e.flushLocked(); err != nil {
		restore()
		return Completion{}, nil, nil, err
	}

	event := &CompletionEvent{
		HabitID:   habitID,
		XPReward:  e.habits[idx].XPReward,
		Timestamp: e.now(),
	}
	return completion, event, e.sink, nil
}

// UncompleteHabit 清除指定日期的全部打卡记录（整组清除，不是弹出一条）。
// 当天没有记录时为幂等空操作，不触发落盘。
func (e *Engine) UncompleteHabit(habitID string, day time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	target := DayOf(day)
	restore := e.snapshotLocked()

	kept := e.completions[:0:0]
	removed := false
	for _, completion := range e.completions {
		if completion.HabitID == habitID && SameDay(completion.Date, target) {
			removed = true
			continue
		}
		kept = append(kept, completion)
	}

	if !removed {
		return nil
	}
	e.completions = kept

	if err := e.flushLocked(); err != nil {
		restore()
		return err
	}
	return nil
}

// IsCompleted 判断指定日期是否有打卡记录。
func (e *Engine) IsCompleted(habitID string, day time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasCompletionLocked(habitID, DayOf(day))
}

// CompletionCount 返回指定日期打卡数量的累计（一天可多次部分完成）。
func (e *Engine) CompletionCount(habitID string, day time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	target := DayOf(day)
	total := 0
	for _, completion := range e.completions {
		if completion.HabitID == habitID && SameDay(completion.Date, target) {
			total += completion.Count
		}
	}
	return total
}

// Habit 按 ID 查找习惯。
func (e *Engine) Habit(id string) (Habit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.habitIndexLocked(id)
	if idx < 0 {
		return Habit{}, false
	}
	return e.habits[idx], true
}

// Habits 返回全部习惯（含已归档）的副本。
func (e *Engine) Habits() []Habit {
	e.mu.Lock()
	defer e.mu.Unlock()

	habits := make([]Habit, len(e.habits))
	copy(habits, e.habits)
	return habits
}

// HabitsDue 返回指定日期待打卡的习惯：未归档、周期命中、当天还没有打卡。
func (e *Engine) HabitsDue(day time.Time) []Habit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filterHabitsLocked(DayOf(day), false)
}

// HabitsCompleted 返回指定日期已完成打卡的习惯：未归档、周期命中、已打卡。
func (e *Engine) HabitsCompleted(day time.Time) []Habit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filterHabitsLocked(DayOf(day), true)
}

// TodayProgress 返回今天的完成进度。
func (e *Engine) TodayProgress() float64 {
	return e.ProgressOn(e.nowDay())
}

// ProgressOn 返回指定日期 已完成/应完成 的比例。
// 当天没有任何习惯需要打卡时返回 1.0，避免把空日误报成 0%。
func (e *Engine) ProgressOn(day time.Time) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	target := DayOf(day)
	due := 0
	done := 0
	for _, habit := range e.habits {
		if habit.IsArchived || !habit.AppliesOn(target) {
			continue
		}
		due++
		if e.hasCompletionLocked(habit.ID, target) {
			done++
		}
	}

	if due == 0 {
		return 1.0
	}
	return float64(done) / float64(due)
}

func (e *Engine) filterHabitsLocked(day time.Time, completed bool) []Habit {
	result := make([]Habit, 0, len(e.habits))
	for _, habit := range e.habits {
		if habit.IsArchived || !habit.AppliesOn(day) {
			continue
		}
		if e.hasCompletionLocked(habit.ID, day) == completed {
			result = append(result, habit)
		}
	}
	return result
}

func (e *Engine) hasCompletionLocked(habitID string, day time.Time) bool {
	for _, completion := range e.completions {
		if completion.HabitID == habitID && SameDay(completion.Date, day) {
			return true
		}
	}
	return false
}

func (e *Engine) habitIndexLocked(id string) int {
	for i := range e.habits {
		if e.habits[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) nowDay() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return DayOf(e.now())
}

// snapshotLocked 备份两份集合，落盘失败时回滚，保证未确认的变更不可见。
func (e *Engine) snapshotLocked() func() {
	habits := make([]Habit, len(e.habits))
	copy(habits, e.habits)
	completions := make([]Completion, len(e.completions))
	copy(completions, e.completions)

	return func() {
		e.habits = habits
		e.completions = completions
	}
}

// flushLocked 先执行保留期清理再落盘。清理挂在落盘路径上而非定时器：
// 长时间空闲后的查询可能读到的仍是未截断的历史。
func (e *Engine) flushLocked() error {
	e.sweepLocked()
	if err := e.store.Save(e.habits, e.completions); err != nil {
		return fmt.Errorf("save engine state: %w", err)
	}
	return nil
}

func (e *Engine) sweepLocked() {
	cutoff := DayOf(e.now()).AddDate(0, 0, -e.retentionDays)

	kept := e.completions[:0:0]
	for _, completion := range e.completions {
		if !DayOf(completion.Date).Before(cutoff) {
			kept = append(kept, completion)
		}
	}
	e.completions = kept
}

func validateHabitInput(input HabitInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrHabitNameRequired
	}
	if !input.Schedule.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidSchedule, input.Schedule)
	}
	if input.XPReward < 0 {
		return ErrNegativeXPReward
	}
	return nil
}
