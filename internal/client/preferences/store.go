package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/restodash/internal/client/storage"
	"github.com/dmitrijs2005/restodash/internal/logging"
)

// StorageKey is the key, in the preferences namespace, holding the JSON object.
const StorageKey = "dashboard-settings"

// Store is the Preference Store. It is safe for concurrent use.
type Store struct {
	kv      storage.KV
	surface Surface
	log     logging.Logger

	// mu serializes mutations so that persistence order matches apply order.
	mu     sync.Mutex
	prefs  Preferences
	subs   map[int]func(Preferences)
	nextID int
}

type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore returns a Store holding the defaults. Call Load to read the
// stored object.
func NewStore(kv storage.KV, surface Surface, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		surface: surface,
		log:     logging.Nop(),
		prefs:   Defaults(),
		subs:    make(map[int]func(Preferences)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load reads the stored preferences, decodes them over the defaults and
// applies the result. A missing object yields the defaults. A field of the
// wrong type or out of range falls back to its default alone. An unreadable
// or syntactically broken object is logged and yields the defaults; only the
// read error is returned.
func (s *Store) Load(ctx context.Context) error {
	p := Defaults()

	raw, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.log.Error(ctx, "failed to read preferences", "error", err)
	} else if len(raw) > 0 {
		var typeErr *json.UnmarshalTypeError
		if uerr := json.Unmarshal(raw, &p); errors.As(uerr, &typeErr) {
			// The remaining fields were decoded; the mistyped one keeps its default.
			s.log.Warn(ctx, "ignoring mistyped stored preference", "field", typeErr.Field, "error", uerr)
		} else if uerr != nil {
			s.log.Warn(ctx, "ignoring malformed stored preferences", "error", uerr)
			p = Defaults()
		}
		if fixed := sanitize(&p); len(fixed) > 0 {
			s.log.Warn(ctx, "reset out-of-range stored preferences", "keys", fixed)
		}
	}

	s.mu.Lock()
	s.prefs = p
	Apply(p, s.surface)
	s.mu.Unlock()
	s.publish(p)

	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	return nil
}

// Get returns the current preferences.
func (s *Store) Get() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// Update sets one preference. The whole object is persisted before it is
// applied; an unknown key, an invalid value or a storage failure leaves
// memory, storage and the surface untouched.
func (s *Store) Update(ctx context.Context, key Key, value string) error {
	s.mu.Lock()
	next, err := s.prefs.With(key, value)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.commitLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.log.Debug(ctx, "preference updated", "key", key, "value", value)
	s.publish(next)
	return nil
}

// Reset persists and applies the defaults.
func (s *Store) Reset(ctx context.Context) error {
	def := Defaults()

	s.mu.Lock()
	if err := s.commitLocked(ctx, def); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.log.Debug(ctx, "preferences reset")
	s.publish(def)
	return nil
}

// Apply re-applies the current preferences to the surface.
func (s *Store) Apply() {
	s.mu.Lock()
	defer s.mu.Unlock()
	Apply(s.prefs, s.surface)
}

// Subscribe registers fn to receive the preferences after every change.
func (s *Store) Subscribe(fn func(Preferences)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) commitLocked(ctx context.Context, next Preferences) error {
	b, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, b); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	s.prefs = next
	Apply(next, s.surface)
	return nil
}

func (s *Store) publish(p Preferences) {
	s.mu.Lock()
	fns := make([]func(Preferences), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}
