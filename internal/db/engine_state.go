package db

import "gorm.io/gorm"

// EngineState 以键值对形式存储引擎的两份集合，Value 为 JSON 编码文本。
// 字段名稳定、未知字段可忽略，保证新老版本互相兼容。
type EngineState struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (EngineState) TableName() string {
	return "engine_states"
}

const (
	// StateKeyHabits 存放习惯定义集合。
	StateKeyHabits = "habits"
	// StateKeyCompletions 存放打卡记录集合。
	StateKeyCompletions = "habit_completions"
)
