package progress

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps progress in process memory. It is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	solved map[string]map[int]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{solved: make(map[string]map[int]struct{})}
}

func (m *MemoryStore) MarkSolved(_ context.Context, learner string, taskID int) (bool, error) {
	if err := checkLearner(learner); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks, ok := m.solved[learner]
	if !ok {
		tasks = make(map[int]struct{})
		m.solved[learner] = tasks
	}
	if _, done := tasks[taskID]; done {
		return false, nil
	}
	tasks[taskID] = struct{}{}
	return true, nil
}

func (m *MemoryStore) IsSolved(_ context.Context, learner string, taskID int) (bool, error) {
	if err := checkLearner(learner); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.solved[learner][taskID]
	return ok, nil
}

func (m *MemoryStore) Solved(_ context.Context, learner string) ([]int, error) {
	if err := checkLearner(learner); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, 0, len(m.solved[learner]))
	for id := range m.solved[learner] {
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
