package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithMaxRetries bounds how many times an optimistic update is retried
// before giving up with ErrContention.
func WithMaxRetries(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}
