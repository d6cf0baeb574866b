package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/engine"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// saveAttempts 限定单次落盘的重试次数。本地 sqlite 的写失败
// 基本只有短暂的文件锁竞争，简单重试即可覆盖。
const (
	saveAttempts = 3
	retryBackoff = 100 * time.Millisecond
)

// KV 把引擎的两份集合编码成 JSON，存放在 engine_states 表的两个固定键下，
// 实现 engine.Store。键缺失按空集合处理；值损坏时记录诊断并降级为空集合，
// 坏数据不阻塞启动。
type KV struct {
	db      *gorm.DB
	backoff time.Duration
}

// NewKV 构造 KV 存储。
func NewKV(gdb *gorm.DB) *KV {
	return &KV{db: gdb, backoff: retryBackoff}
}

// Load 读取两份集合。
func (s *KV) Load() ([]engine.Habit, []engine.Completion, error) {
	var habits []engine.Habit
	if err := s.loadValue(db.StateKeyHabits, &habits); err != nil {
		return nil, nil, err
	}

	var completions []engine.Completion
	if err := s.loadValue(db.StateKeyCompletions, &completions); err != nil {
		return nil, nil, err
	}

	return habits, completions, nil
}

func (s *KV) loadValue(key string, dst any) error {
	var record db.EngineState
	if err := s.db.Where("key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 键不存在等同首次启动，从空集合开始
			return nil
		}
		return fmt.Errorf("load state %s: %w", key, err)
	}

	if record.Value == "" {
		return nil
	}

	if err := json.Unmarshal([]byte(record.Value), dst); err != nil {
		log.Printf("store: state %s corrupted, starting empty: %v", key, err)
		return nil
	}

	return nil
}

// Save 将两份集合在同一事务内整体落盘，写失败时以事务为单位做有限次重试。
// 两个键要么一起更新要么都不更新：中途失败或崩溃不会留下
// 习惯与打卡不一致的半套状态。
func (s *KV) Save(habits []engine.Habit, completions []engine.Completion) error {
	encodedHabits, err := json.Marshal(habits)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", db.StateKeyHabits, err)
	}
	encodedCompletions, err := json.Marshal(completions)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", db.StateKeyCompletions, err)
	}

	var lastErr error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.backoff)
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := upsertValue(tx, db.StateKeyHabits, encodedHabits); err != nil {
				return err
			}
			return upsertValue(tx, db.StateKeyCompletions, encodedCompletions)
		})
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("save engine state: %w", lastErr)
}

func upsertValue(tx *gorm.DB, key string, encoded []byte) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&db.EngineState{Key: key, Value: string(encoded)}).Error
}
