package repositories

// Store is a key-scoped durable value store with change notification.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Subscribe(fn func(key string)) (unsubscribe func())
}

// subscribers fans out change notifications.
type subscribers struct {
	next int
	fns  map[int]func(string)
}

func (s *subscribers) add(fn func(string)) int {
	if s.fns == nil {
		s.fns = make(map[int]func(string))
	}
	s.next++
	s.fns[s.next] = fn
	return s.next
}

func (s *subscribers) snapshot() []func(string) {
	out := make([]func(string), 0, len(s.fns))
	for i := 1; i <= s.next; i++ {
		if fn, ok := s.fns[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}
