package engine

// Store 抽象引擎两份集合的持久化。
// Load 在底层数据缺失时应返回空集合而不是错误，保证启动不被阻塞；
// Save 成功返回前必须保证数据已落盘或已进入可靠队列。
type Store interface {
	Load() (habits []Habit, completions []Completion, err error)
	Save(habits []Habit, completions []Completion) error
}

// MemoryStore 是测试用的内存实现。
type MemoryStore struct {
	Habits      []Habit
	Completions []Completion
	SaveCalls   int
	SaveErr     error
}

// NewMemoryStore 构造空的内存存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load 返回当前内存中的集合副本。
func (m *MemoryStore) Load() ([]Habit, []Completion, error) {
	habits := make([]Habit, len(m.Habits))
	copy(habits, m.Habits)
	completions := make([]Completion, len(m.Completions))
	copy(completions, m.Completions)
	return habits, completions, nil
}

// Save 记录最近一次落盘内容；设置 SaveErr 可模拟写失败。
func (m *MemoryStore) Save(habits []Habit, completions []Completion) error {
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}

	m.Habits = make([]Habit, len(habits))
	copy(m.Habits, habits)
	m.Completions = make([]Completion, len(completions))
	copy(m.Completions, completions)
	return nil
}
