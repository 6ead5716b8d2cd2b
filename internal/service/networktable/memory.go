package networktable

import (
	"sort"
	"sync"
)

// MemoryInstance is an in-process table store used when this process is the table server.
type MemoryInstance struct {
	tables map[string]*memoryTable
	mu     sync.RWMutex
}

// NewMemoryInstance creates an empty in-memory store.
func NewMemoryInstance() *MemoryInstance {
	return &MemoryInstance{
		tables: make(map[string]*memoryTable),
	}
}

// Table returns the named table, creating it when absent.
func (m *MemoryInstance) Table(name string) Table {
	m.mu.RLock()
	table, exists := m.tables[name]
	m.mu.RUnlock()
	if exists {
		return table
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if table, exists := m.tables[name]; exists {
		return table
	}
	table = &memoryTable{name: name, values: make(map[string]Value)}
	m.tables[name] = table
	return table
}

// Tables lists table names in sorted order.
func (m *MemoryInstance) Tables() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Publish applies the batch table by table.
func (m *MemoryInstance) Publish(batch Batch) error {
	for name, values := range batch {
		table := m.Table(name).(*memoryTable)
		table.mu.Lock()
		for key, v := range values {
			if v.Numbers != nil {
				v.Numbers = append([]float64(nil), v.Numbers...)
			}
			table.values[key] = v
		}
		table.mu.Unlock()
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryInstance) Close() error {
	return nil
}

type memoryTable struct {
	name   string
	values map[string]Value
	mu     sync.RWMutex
}

func (t *memoryTable) Name() string {
	return t.name
}

func (t *memoryTable) set(key string, v Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[key] = v
	return nil
}

func (t *memoryTable) SetNumber(key string, value float64) error {
	return t.set(key, Value{Type: TypeNumber, Number: value})
}

func (t *memoryTable) SetNumberArray(key string, values []float64) error {
	numbers := make([]float64, len(values))
	copy(numbers, values)
	return t.set(key, Value{Type: TypeNumberArray, Numbers: numbers})
}

func (t *memoryTable) SetBoolean(key string, value bool) error {
	return t.set(key, Value{Type: TypeBoolean, Boolean: value})
}

func (t *memoryTable) GetNumber(key string, def float64) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.values[key]
	if !ok || v.Type != TypeNumber {
		return def
	}
	return v.Number
}

func (t *memoryTable) Snapshot() (map[string]Value, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make(map[string]Value, len(t.values))
	for k, v := range t.values {
		if v.Numbers != nil {
			numbers := make([]float64, len(v.Numbers))
			copy(numbers, v.Numbers)
			v.Numbers = numbers
		}
		snapshot[k] = v
	}
	return snapshot, nil
}
