package storage

import "context"

// Repository is the namespaced key/value contract implemented by
// SQLiteRepository.
type Repository interface {
	Get(ctx context.Context, ns, key string) ([]byte, error)
	Set(ctx context.Context, ns, key string, value []byte) error
	SetMany(ctx context.Context, ns string, values map[string][]byte) error
	Delete(ctx context.Context, ns string, keys ...string) error
	List(ctx context.Context, ns string) (map[string][]byte, error)
}

// KV is what the state containers need from durable storage.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Namespaces used by the client.
const (
	NamespaceSession     = "session"
	NamespacePreferences = "preferences"
)

// Bucket binds a Repository to one namespace and implements KV.
type Bucket struct {
	repo Repository
	ns   string
}

func NewBucket(repo Repository, ns string) *Bucket {
	return &Bucket{repo: repo, ns: ns}
}

func (b *Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	return b.repo.Get(ctx, b.ns, key)
}

func (b *Bucket) Set(ctx context.Context, key string, value []byte) error {
	return b.repo.Set(ctx, b.ns, key, value)
}

func (b *Bucket) SetMany(ctx context.Context, values map[string][]byte) error {
	return b.repo.SetMany(ctx, b.ns, values)
}

func (b *Bucket) Delete(ctx context.Context, keys ...string) error {
	return b.repo.Delete(ctx, b.ns, keys...)
}

// List returns every key and value stored in the namespace.
func (b *Bucket) List(ctx context.Context) (map[string][]byte, error) {
	return b.repo.List(ctx, b.ns)
}
