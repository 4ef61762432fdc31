// Package pool provides the fixed-capacity entity container shared by the
// bolt and fire generators. Pool membership is the only ownership mechanism
// for animated entities; insertion beyond capacity evicts the oldest entry.
package pool

// Pool is a capacity-bounded, age-ordered collection backed by a ring buffer.
// Insert and evict are O(1); removal compacts in a single pass.
type Pool[T any] struct {
	items []T
	head  int
	count int
}

// New creates a Pool holding at most capacity items. Capacity is fixed for
// the life of the pool.
func New[T any](capacity int) *Pool[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool[T]{items: make([]T, capacity)}
}

func (p *Pool[T]) Len() int { return p.count }
func (p *Pool[T]) Cap() int { return len(p.items) }

// Insert adds item, evicting the single oldest entry first when full. The
// new item is never silently dropped.
func (p *Pool[T]) Insert(item T) {
	if p.count == len(p.items) {
		p.head = (p.head + 1) % len(p.items)
		p.count--
	}
	p.items[(p.head+p.count)%len(p.items)] = item
	p.count++
}

// ForEach visits every entry oldest-first, allowing in-place mutation. The
// callback returns false to remove the entry. Removal preserves insertion
// order of the survivors.
func (p *Pool[T]) ForEach(fn func(*T) bool) {
	write := 0
	for read := 0; read < p.count; read++ {
		idx := (p.head + read) % len(p.items)
		if !fn(&p.items[idx]) {
			continue
		}
		if write != read {
			p.items[(p.head+write)%len(p.items)] = p.items[idx]
		}
		write++
	}
	p.count = write
}

// RemoveWhere drops every entry matching pred.
func (p *Pool[T]) RemoveWhere(pred func(*T) bool) {
	p.ForEach(func(item *T) bool { return !pred(item) })
}

// Oldest returns a pointer to the oldest live entry, or nil when empty. The
// pointer is invalidated by the next Insert or removal.
func (p *Pool[T]) Oldest() *T {
	if p.count == 0 {
		return nil
	}
	return &p.items[p.head]
}

// Snapshot copies the live entries oldest-first. Intended for render-side
// reads and tests; the copies do not alias pool storage.
func (p *Pool[T]) Snapshot() []T {
	out := make([]T, 0, p.count)
	for i := 0; i < p.count; i++ {
		out = append(out, p.items[(p.head+i)%len(p.items)])
	}
	return out
}
