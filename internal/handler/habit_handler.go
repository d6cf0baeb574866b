package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/engine"
)

type habitPayload struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Dimension       string  `json:"dimension"`
	Schedule        string  `json:"schedule"`
	XPReward        int     `json:"xp_reward"`
	TargetCount     int     `json:"target_count"`
	ReminderTime    *string `json:"reminder_time"`
	ReminderEnabled bool    `json:"reminder_enabled"`
}

// ListHabits 返回习惯列表，默认不含已归档，archived=1 时只看归档。
func (a *API) ListHabits(c *gin.Context) {
	archived := c.Query("archived") == "1"
	dimension := strings.TrimSpace(c.Query("dimension"))

	items := make([]gin.H, 0)
	for _, habit := range a.engine.Habits() {
		if habit.IsArchived != archived {
			continue
		}
		if dimension != "" && habit.Dimension != dimension {
			continue
		}
		items = append(items, habitToPayload(habit))
	}

	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// GetHabit 返回单个习惯详情。
func (a *API) GetHabit(c *gin.Context) {
	habit, ok := a.engine.Habit(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "习惯不存在")
		return
	}
	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(habit)})
}

// CreateHabit 创建习惯。
func (a *API) CreateHabit(c *gin.Context) {
	input, ok := a.parseHabitInput(c)
	if !ok {
		return
	}

	habit, err := a.engine.AddHabit(input)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(habit)})
}

// UpdateHabit 按 ID 整体替换习惯配置。
func (a *API) UpdateHabit(c *gin.Context) {
	id := c.Param("id")
	if _, ok := a.engine.Habit(id); !ok {
		respondError(c, http.StatusNotFound, "习惯不存在")
		return
	}

	input, ok := a.parseHabitInput(c)
	if !ok {
		return
	}

	if err := a.engine.UpdateHabit(id, input); err != nil {
		handleHabitError(c, err)
		return
	}

	habit, _ := a.engine.Habit(id)
	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(habit)})
}

// ArchiveHabit 归档习惯，保留历史打卡。
func (a *API) ArchiveHabit(c *gin.Context) {
	if err := a.engine.ArchiveHabit(c.Param("id")); err != nil {
		respondError(c, http.StatusInternalServerError, "归档习惯失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": true})
}

// DeleteHabit 删除习惯并级联删除其打卡记录。
func (a *API) DeleteHabit(c *gin.Context) {
	if err := a.engine.DeleteHabit(c.Param("id")); err != nil {
		respondError(c, http.StatusInternalServerError, "删除习惯失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// CompleteHabit 记录一次打卡，date 缺省为今天，count 缺省为 1。
func (a *API) CompleteHabit(c *gin.Context) {
	var payload struct {
		Date  string `json:"date"` // 2006-01-02，可选
		Count int    `json:"count"`
		Note  string `json:"note"`
	}
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return
		}
	}

	day, ok := parseDayOrToday(payload.Date)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的打卡日期")
		return
	}

	completion, err := a.engine.CompleteHabitOn(c.Param("id"), day, payload.Count, payload.Note)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存打卡记录失败")
		return
	}

	if completion.ID == "" {
		// 过期引用：习惯已被删除，按空操作处理
		c.JSON(http.StatusOK, gin.H{"recorded": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": true, "completion": completionToPayload(completion)})
}

// UncompleteHabit 清除指定日期的全部打卡记录，幂等。
func (a *API) UncompleteHabit(c *gin.Context) {
	var payload struct {
		Date string `json:"date"` // 2006-01-02，可选
	}
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return
		}
	}

	day, ok := parseDayOrToday(payload.Date)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	if err := a.engine.UncompleteHabit(c.Param("id"), day); err != nil {
		respondError(c, http.StatusInternalServerError, "撤销打卡失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// GetHabitStats 返回习惯的统计快照。
func (a *API) GetHabitStats(c *gin.Context) {
	id := c.Param("id")
	stats := a.engine.HabitStats(id)
	day, _ := parseDayOrToday("")

	payload := gin.H{
		"current_streak":        stats.CurrentStreak,
		"best_streak":           stats.BestStreak,
		"total_completions":     stats.TotalCompletions,
		"completion_rate":       stats.CompletionRate,
		"total_xp_earned":       stats.TotalXPEarned,
		"this_week_completions": stats.ThisWeekCompletions,
		"completed_today":       a.engine.IsCompleted(id, day),
		"today_count":           a.engine.CompletionCount(id, day),
	}
	if stats.LastCompletedDate != nil {
		payload["last_completed_date"] = stats.LastCompletedDate.Format(engine.DateFormat)
	}

	c.JSON(http.StatusOK, gin.H{"stats": payload})
}

// ListDueHabits 返回指定日期待打卡的习惯。
func (a *API) ListDueHabits(c *gin.Context) {
	a.respondHabitSet(c, true)
}

// ListCompletedHabits 返回指定日期已完成的习惯。
func (a *API) ListCompletedHabits(c *gin.Context) {
	a.respondHabitSet(c, false)
}

// GetProgress 返回指定日期的完成进度。
func (a *API) GetProgress(c *gin.Context) {
	day, ok := parseDayOrToday(c.Query("date"))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":     day.Format(engine.DateFormat),
		"progress": a.engine.ProgressOn(day),
	})
}

func (a *API) respondHabitSet(c *gin.Context, due bool) {
	day, ok := parseDayOrToday(c.Query("date"))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	var habits []engine.Habit
	if due {
		habits = a.engine.HabitsDue(day)
	} else {
		habits = a.engine.HabitsCompleted(day)
	}

	items := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}

	c.JSON(http.StatusOK, gin.H{"date": day.Format(engine.DateFormat), "habits": items})
}

func (a *API) parseHabitInput(c *gin.Context) (engine.HabitInput, bool) {
	var payload habitPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return engine.HabitInput{}, false
	}

	schedule := engine.Schedule(strings.ToLower(strings.TrimSpace(payload.Schedule)))
	if !schedule.Valid() {
		respondError(c, http.StatusBadRequest, "不支持的打卡周期")
		return engine.HabitInput{}, false
	}

	if payload.ReminderTime != nil {
		if _, err := time.Parse("15:04", *payload.ReminderTime); err != nil {
			respondError(c, http.StatusBadRequest, "无效的提醒时间")
			return engine.HabitInput{}, false
		}
	}

	return engine.HabitInput{
		Name:            payload.Name,
		Description:     payload.Description,
		Dimension:       payload.Dimension,
		Schedule:        schedule,
		XPReward:        payload.XPReward,
		TargetCount:     payload.TargetCount,
		ReminderTime:    payload.ReminderTime,
		ReminderEnabled: payload.ReminderEnabled,
	}, true
}

func habitToPayload(habit engine.Habit) gin.H {
	item := gin.H{
		"id":               habit.ID,
		"name":             habit.Name,
		"description":      habit.Description,
		"dimension":        habit.Dimension,
		"schedule":         string(habit.Schedule),
		"xp_reward":        habit.XPReward,
		"target_count":     habit.TargetCount,
		"created_date":     habit.CreatedDate.Format(engine.DateFormat),
		"is_archived":      habit.IsArchived,
		"reminder_enabled": habit.ReminderEnabled,
	}
	if habit.ReminderTime != nil {
		item["reminder_time"] = *habit.ReminderTime
	}
	return item
}

func completionToPayload(completion engine.Completion) gin.H {
	return gin.H{
		"id":       completion.ID,
		"habit_id": completion.HabitID,
		"date":     completion.Date.Format(engine.DateFormat),
		"count":    completion.Count,
		"note":     completion.Note,
	}
}

func handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrHabitNameRequired):
		respondError(c, http.StatusBadRequest, "习惯名称不能为空")
	case errors.Is(err, engine.ErrInvalidSchedule):
		respondError(c, http.StatusBadRequest, "不支持的打卡周期")
	case errors.Is(err, engine.ErrNegativeXPReward):
		respondError(c, http.StatusBadRequest, "经验值奖励不能为负数")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
