package storage

import "context"

type prefixed struct {
	next   Storage
	prefix string
}

// WithPrefix namespaces every key of s, so several carts can share one
// backend while each still uses the same fixed record key.
func WithPrefix(s Storage, prefix string) Storage {
	return &prefixed{next: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.next.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.next.Set(ctx, p.prefix+key, value)
}
