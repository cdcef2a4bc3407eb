package streamteam

import "sync"

// StoreKey addresses a single state entry: the store it lives in, the
// match it belongs to, and the inner-key within that match (a player id, a
// team id, or the shared constant "all").
type StoreKey struct {
	Store string
	Match string
	Inner string
}

// KVBackend is the keyed key-value backend that SingleValueStore and
// HistoryStore are thin wrappers over. The engine's own in-memory
// implementation (NewMemoryBackend) is sufficient for an embedded
// deployment; internal/mirror supplies a durable, Postgres-backed
// implementation for recovery (see spec.md §5/§6's "durable state
// mirror").
type KVBackend interface {
	Get(k StoreKey) (any, bool)
	Put(k StoreKey, v any)
}

// MemoryBackend is a process-local KVBackend. Distinct match ids are
// strictly disjoint by construction (they're different map keys) and
// independently reclaimable via Clear.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[StoreKey]any
}

// NewMemoryBackend constructs an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[StoreKey]any)}
}

func (m *MemoryBackend) Get(k StoreKey) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[k]
	return v, ok
}

func (m *MemoryBackend) Put(k StoreKey, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[k] = v
}

// Clear discards all state for a single match id, reclaiming it. Called
// when a worker is told a match will never be touched again.
func (m *MemoryBackend) Clear(matchID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if k.Match == matchID {
			delete(m.data, k)
		}
	}
}

// SingleValueStore maps (matchID, innerKey) to a single value of type T.
// The inner-key is either derived from the current element via the
// store's configured schema, or supplied explicitly by the caller (e.g.
// when the Schema is streamteam.No and the processor computes the key
// itself, as the dribbling and duel detectors do for their opponent-team
// lookups).
type SingleValueStore[T any] struct {
	Name          string
	InnerKeySchema Schema
	Backend       KVBackend
}

// NewSingleValueStore constructs a store backed by backend, deriving
// inner-keys via keySchema unless callers use the *At methods.
func NewSingleValueStore[T any](name string, keySchema Schema, backend KVBackend) *SingleValueStore[T] {
	return &SingleValueStore[T]{Name: name, InnerKeySchema: keySchema, Backend: backend}
}

// InnerKeyOf applies the store's configured schema to e.
func (s *SingleValueStore[T]) InnerKeyOf(e Element) (string, error) {
	v, err := s.InnerKeySchema.Apply(e)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Get reads the value stored for (matchID, e's derived inner-key).
func (s *SingleValueStore[T]) Get(matchID string, e Element) (T, bool, error) {
	var zero T
	inner, err := s.InnerKeyOf(e)
	if err != nil {
		return zero, false, err
	}
	v, ok := s.GetAt(matchID, inner)
	return v, ok, nil
}

// GetAt reads the value stored for an explicit (matchID, innerKey) pair.
func (s *SingleValueStore[T]) GetAt(matchID, innerKey string) (T, bool) {
	var zero T
	raw, ok := s.Backend.Get(StoreKey{Store: s.Name, Match: matchID, Inner: innerKey})
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// GetOrZero is GetAt with the documented zero-value default instead of a
// found flag — the shape used by getLong/getDouble/getBoolean in spec.md
// §4.2, so statistics emitters never special-case "uninitialized".
func (s *SingleValueStore[T]) GetOrZero(matchID, innerKey string) T {
	v, _ := s.GetAt(matchID, innerKey)
	return v
}

// Put writes value for (matchID, e's derived inner-key).
func (s *SingleValueStore[T]) Put(matchID string, e Element, value T) error {
	inner, err := s.InnerKeyOf(e)
	if err != nil {
		return err
	}
	s.PutAt(matchID, inner, value)
	return nil
}

// PutAt writes value for an explicit (matchID, innerKey) pair.
func (s *SingleValueStore[T]) PutAt(matchID, innerKey string, value T) {
	s.Backend.Put(StoreKey{Store: s.Name, Match: matchID, Inner: innerKey}, value)
}

// numeric is the constraint satisfied by SingleValueStore element types
// that support monotonic Increase.
type numeric interface {
	~int64 | ~float64
}

// Increase performs an atomic (within the per-match single-thread
// discipline) read-modify-write: it reads the current value (0 if
// unset), adds delta, stores and returns the result.
func Increase[T numeric](s *SingleValueStore[T], matchID, innerKey string, delta T) T {
	next := s.GetOrZero(matchID, innerKey) + delta
	s.PutAt(matchID, innerKey, next)
	return next
}

// HistoryStore maps (matchID, innerKey) to a bounded deque of T, ordered
// newest-first, with a capacity fixed at construction.
type HistoryStore[T any] struct {
	Name           string
	Capacity       int
	InnerKeySchema Schema
	Backend        KVBackend
}

// NewHistoryStore constructs a history store with the given fixed
// capacity.
func NewHistoryStore[T any](name string, capacity int, keySchema Schema, backend KVBackend) *HistoryStore[T] {
	return &HistoryStore[T]{Name: name, Capacity: capacity, InnerKeySchema: keySchema, Backend: backend}
}

func (h *HistoryStore[T]) InnerKeyOf(e Element) (string, error) {
	v, err := h.InnerKeySchema.Apply(e)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Add prepends value to (matchID, e's derived inner-key)'s list, dropping
// the oldest entry once the list exceeds Capacity.
func (h *HistoryStore[T]) Add(matchID string, e Element, value T) error {
	inner, err := h.InnerKeyOf(e)
	if err != nil {
		return err
	}
	h.AddAt(matchID, inner, value)
	return nil
}

// AddAt is Add with an explicit inner-key.
func (h *HistoryStore[T]) AddAt(matchID, innerKey string, value T) {
	list := h.GetListAt(matchID, innerKey)
	list = append([]T{value}, list...)
	if len(list) > h.Capacity {
		list = list[:h.Capacity]
	}
	h.Backend.Put(StoreKey{Store: h.Name, Match: matchID, Inner: innerKey}, list)
}

// GetList returns the newest-first list for (matchID, e's derived
// inner-key).
func (h *HistoryStore[T]) GetList(matchID string, e Element) ([]T, error) {
	inner, err := h.InnerKeyOf(e)
	if err != nil {
		return nil, err
	}
	return h.GetListAt(matchID, inner), nil
}

// GetListAt is GetList with an explicit inner-key. Always returns a
// non-nil, possibly-empty slice, never containing a nil/zero sentinel.
func (h *HistoryStore[T]) GetListAt(matchID, innerKey string) []T {
	raw, ok := h.Backend.Get(StoreKey{Store: h.Name, Match: matchID, Inner: innerKey})
	if !ok {
		return []T{}
	}
	list, ok := raw.([]T)
	if !ok {
		return []T{}
	}
	return list
}

// GetLatestAt returns the newest entry for (matchID, innerKey), if any.
func (h *HistoryStore[T]) GetLatestAt(matchID, innerKey string) (T, bool) {
	list := h.GetListAt(matchID, innerKey)
	var zero T
	if len(list) == 0 {
		return zero, false
	}
	return list[0], true
}
