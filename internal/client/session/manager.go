package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/restodash/internal/client/api"
	"github.com/dmitrijs2005/restodash/internal/client/notify"
	"github.com/dmitrijs2005/restodash/internal/client/router"
	"github.com/dmitrijs2005/restodash/internal/client/storage"
	"github.com/dmitrijs2005/restodash/internal/client/task"
	"github.com/dmitrijs2005/restodash/internal/logging"
)

// Durable keys in the session namespace.
const (
	KeyToken    = "authToken"
	KeyIdentity = "authUser"
)

const (
	msgLoginFailed    = "Login failed"
	msgRegisterFailed = "Registration failed"
	msgSessionExpired = "Session expired. Please login again."
)

// Navigator moves the client to another route.
type Navigator interface {
	Navigate(path string)
}

// Manager is the Session Manager. It is safe for concurrent use.
type Manager struct {
	auth   api.AuthAPI
	store  storage.KV
	nav    Navigator
	notify notify.Notifier
	log    logging.Logger
	now    func() time.Time

	runner task.Latest

	mu     sync.Mutex
	state  Session
	cached *Identity // identity read back from storage, not yet verified
	subs   map[int]func(Session)
	nextID int
}

type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) { m.notify = n }
}

func WithNavigator(n Navigator) Option {
	return func(m *Manager) { m.nav = n }
}

// WithClock overrides the time source used for JWT expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a Manager in the Anonymous state. Call Start to restore a
// stored session.
func NewManager(auth api.AuthAPI, store storage.KV, opts ...Option) *Manager {
	m := &Manager{
		auth:   auth,
		store:  store,
		notify: notify.Discard,
		log:    logging.Nop(),
		now:    time.Now,
		subs:   make(map[int]func(Session)),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Token returns the current token, or "" when there is none. It is the
// token source for the API client.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Token
}

// AuthStatus maps the session onto the router's gate input.
func (m *Manager) AuthStatus() router.AuthStatus {
	s := m.Snapshot()
	switch {
	case s.IsAuthenticated:
		return router.StatusAuthenticated
	case s.Token != "":
		return router.StatusPending
	default:
		return router.StatusAnonymous
	}
}

// Subscribe registers fn to receive every new snapshot. fn runs on the
// goroutine that changed the state and must not block.
func (m *Manager) Subscribe(fn func(Session)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// mutate applies fn to the state and returns the new snapshot and whether
// anything changed.
func (m *Manager) mutate(fn func(s *Session)) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := m.state.clone()
	fn(&m.state)
	return m.state.clone(), !before.equal(m.state)
}

func (m *Manager) publish(s Session) {
	m.mu.Lock()
	fns := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(s.clone())
	}
}

func (m *Manager) update(fn func(s *Session)) {
	if snap, changed := m.mutate(fn); changed {
		m.publish(snap)
	}
}

// Start restores the durable session. With a stored token it enters
// Verifying and returns the handle of the verification; without one it
// returns a nil handle. A JWT that has already expired is cleared without
// contacting the backend.
func (m *Manager) Start(ctx context.Context) (*task.Handle, error) {
	raw, err := m.store.Get(ctx, KeyToken)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	token := string(raw)
	if token == "" {
		return nil, nil
	}

	if expired(token, m.now()) {
		m.log.Info(ctx, "stored token expired, clearing session")
		if err := m.store.Delete(ctx, KeyToken, KeyIdentity); err != nil {
			m.log.Error(ctx, "failed to clear expired session", "error", err)
		}
		return nil, nil
	}

	if b, err := m.store.Get(ctx, KeyIdentity); err != nil {
		m.log.Warn(ctx, "failed to load cached identity", "error", err)
	} else if len(b) > 0 {
		var id Identity
		if err := json.Unmarshal(b, &id); err != nil {
			m.log.Warn(ctx, "ignoring malformed cached identity", "error", err)
		} else {
			m.mu.Lock()
			m.cached = &id
			m.mu.Unlock()
		}
	}

	m.update(func(s *Session) { s.Token = token })
	return m.StartVerify(ctx, token), nil
}

// Login authenticates with email and password and waits for the outcome.
// The returned error is for control flow; the message to show is LastError.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	return m.StartLogin(ctx, email, password).Wait()
}

// StartLogin begins a login and returns without waiting.
func (m *Manager) StartLogin(ctx context.Context, email, password string) *task.Handle {
	m.begin(ctx, OpLogin)

	return m.runner.Go(ctx, func(ctx context.Context, commit task.Commit) error {
		res, err := m.auth.Login(ctx, api.LoginRequest{Email: email, Password: password})
		if err != nil {
			m.fail(ctx, commit, err, msgLoginFailed)
			return err
		}

		ident := m.loginIdentity(res, email)

		var snap Session
		var perr error
		ok := commit(func() {
			if perr = m.persist(ctx, res.Token, ident); perr != nil {
				snap, _ = m.mutate(func(s *Session) {
					s.Loading, s.Op = false, OpNone
					s.LastError = msgLoginFailed
				})
				return
			}
			snap, _ = m.mutate(func(s *Session) {
				s.Token = res.Token
				s.Identity = ident
				s.IsAuthenticated = true
				s.Loading, s.Op = false, OpNone
				s.LastError = ""
				s.RegistrationJustSucceeded = false
			})
		})
		if !ok {
			return task.ErrSuperseded
		}
		m.publish(snap)
		if perr != nil {
			m.log.Error(ctx, "failed to persist session", "error", perr)
			return perr
		}
		m.log.Info(ctx, "login succeeded", "user_id", ident.ID, "role", ident.Role)
		return nil
	})
}

// Register creates an account and waits for the outcome. Success raises
// RegistrationJustSucceeded and does not sign the user in.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) error {
	return m.StartRegister(ctx, req).Wait()
}

// StartRegister begins a registration and returns without waiting.
func (m *Manager) StartRegister(ctx context.Context, req api.RegisterRequest) *task.Handle {
	m.begin(ctx, OpRegister)

	return m.runner.Go(ctx, func(ctx context.Context, commit task.Commit) error {
		if _, err := m.auth.Register(ctx, req); err != nil {
			m.fail(ctx, commit, err, msgRegisterFailed)
			return err
		}

		var snap Session
		if !commit(func() {
			snap, _ = m.mutate(func(s *Session) {
				s.Loading, s.Op = false, OpNone
				s.RegistrationJustSucceeded = true
			})
		}) {
			return task.ErrSuperseded
		}
		m.publish(snap)
		m.log.Info(ctx, "registration succeeded", "email", req.Email)
		return nil
	})
}

// VerifyToken checks token with the backend and waits for the outcome. Any
// failure other than cancellation clears the session, durable token included.
func (m *Manager) VerifyToken(ctx context.Context, token string) error {
	return m.StartVerify(ctx, token).Wait()
}

// StartVerify begins a token check and returns without waiting.
func (m *Manager) StartVerify(ctx context.Context, token string) *task.Handle {
	m.runner.Stop()
	m.update(func(s *Session) {
		s.Token = token
		s.Loading, s.Op = true, OpVerify
	})

	return m.runner.Go(ctx, func(ctx context.Context, commit task.Commit) error {
		res, err := m.auth.Verify(ctx, token)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				m.settle(commit)
				return err
			}

			var snap Session
			if !commit(func() { snap = m.clearLocked(ctx) }) {
				return task.ErrSuperseded
			}
			m.publish(snap)
			m.log.Warn(ctx, "token verification failed, session cleared", "error", err)
			return err
		}

		ident := m.verifyIdentity(res, token)

		var snap Session
		var perr error
		if !commit(func() {
			perr = m.persist(ctx, token, ident)
			snap, _ = m.mutate(func(s *Session) {
				s.Token = token
				s.Identity = ident
				s.IsAuthenticated = true
				s.Loading, s.Op = false, OpNone
			})
		}) {
			return task.ErrSuperseded
		}
		m.publish(snap)
		if perr != nil {
			m.log.Warn(ctx, "failed to refresh cached identity", "error", perr)
		}
		return nil
	})
}

// Logout cancels in-flight auth work and clears the session and the durable
// token. It is idempotent; a storage failure is logged, never returned.
func (m *Manager) Logout(ctx context.Context) {
	m.runner.Stop()
	snap, changed := m.reset(ctx)
	if changed {
		m.publish(snap)
		m.log.Info(ctx, "logged out")
	}
}

// HandleUnauthorized is the fatal session clear used when an authenticated
// request is rejected with 401: the session is dropped, the user is told it
// expired and the client is sent to the login route.
func (m *Manager) HandleUnauthorized(ctx context.Context) {
	m.runner.Stop()
	snap, changed := m.reset(ctx)
	if changed {
		m.publish(snap)
	}
	m.log.Warn(ctx, "request unauthorized, session cleared")
	notify.Error(m.notify, msgSessionExpired)
	if m.nav != nil {
		m.nav.Navigate(router.PathAuth)
	}
}

func (m *Manager) ClearError() {
	m.update(func(s *Session) { s.LastError = "" })
}

func (m *Manager) ClearRegistrationSuccess() {
	m.update(func(s *Session) { s.RegistrationJustSucceeded = false })
}

// Close cancels in-flight auth work without touching the session.
func (m *Manager) Close() {
	m.runner.Stop()
}

// begin marks op as in flight. A stored token that has not been verified
// yet is dropped: the user is signing in afresh. The previous task is
// fenced off first so it cannot commit over the new state.
func (m *Manager) begin(ctx context.Context, op Op) {
	m.runner.Stop()

	var drop bool
	m.update(func(s *Session) {
		if s.Token != "" && !s.IsAuthenticated {
			s.Token, s.Identity = "", nil
			drop = true
		}
		s.Loading, s.Op = true, op
		s.LastError = ""
		s.RegistrationJustSucceeded = false
	})
	if drop {
		m.mu.Lock()
		m.cached = nil
		m.mu.Unlock()
		if err := m.store.Delete(ctx, KeyToken, KeyIdentity); err != nil {
			m.log.Error(ctx, "failed to clear unverified token", "error", err)
		}
	}
}

// fail records a failed login or registration. Cancellation only clears the
// loading flag.
func (m *Manager) fail(ctx context.Context, commit task.Commit, err error, fallback string) {
	if errors.Is(err, context.Canceled) {
		m.settle(commit)
		return
	}
	var snap Session
	if commit(func() {
		snap, _ = m.mutate(func(s *Session) {
			s.Loading, s.Op = false, OpNone
			s.LastError = api.UserMessage(err, fallback)
		})
	}) {
		m.publish(snap)
		m.log.Info(ctx, "auth request failed", "error", err)
	}
}

func (m *Manager) settle(commit task.Commit) {
	var snap Session
	var changed bool
	if commit(func() {
		snap, changed = m.mutate(func(s *Session) { s.Loading, s.Op = false, OpNone })
	}) && changed {
		m.publish(snap)
	}
}

// reset clears the session in memory and in storage. LastError survives so
// a message already on screen is not lost.
func (m *Manager) reset(ctx context.Context) (Session, bool) {
	snap, changed := m.mutate(func(s *Session) {
		lastErr := s.LastError
		*s = Session{LastError: lastErr}
	})
	m.mu.Lock()
	m.cached = nil
	m.mu.Unlock()
	if err := m.store.Delete(context.WithoutCancel(ctx), KeyToken, KeyIdentity); err != nil {
		m.log.Error(ctx, "failed to remove stored session", "error", err)
	}
	return snap, changed
}

// clearLocked is reset for use inside a commit.
func (m *Manager) clearLocked(ctx context.Context) Session {
	snap, _ := m.reset(ctx)
	return snap
}

// persist writes token and identity in one transaction. The write outlives
// the request context so a response that already arrived is not lost.
func (m *Manager) persist(ctx context.Context, token string, ident *Identity) error {
	values := map[string][]byte{KeyToken: []byte(token)}
	if ident != nil {
		b, err := json.Marshal(ident)
		if err != nil {
			return fmt.Errorf("encode identity: %w", err)
		}
		values[KeyIdentity] = b
	}
	if err := m.store.SetMany(context.WithoutCancel(ctx), values); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	m.mu.Lock()
	m.cached = nil
	m.mu.Unlock()
	return nil
}

func (m *Manager) loginIdentity(res *api.LoginResult, email string) *Identity {
	ident := identityFrom(res.User, res.Token)
	ident.Email = email
	if res.User != nil && res.User.Name != "" {
		ident.Name = res.User.Name
	} else if known := m.knownIdentity(ident.ID); known != nil {
		ident.Name = known.Name
	}
	return ident
}

func (m *Manager) verifyIdentity(res *api.VerifyResult, token string) *Identity {
	ident := identityFrom(res.User, token)
	if res.User != nil {
		ident.Email, ident.Name = res.User.Email, res.User.Name
	}
	if known := m.knownIdentity(ident.ID); known != nil {
		if ident.Email == "" {
			ident.Email = known.Email
		}
		if ident.Name == "" {
			ident.Name = known.Name
		}
	}
	return ident
}

// knownIdentity returns the identity already on record for id, from the
// live session or the stored cache.
func (m *Manager) knownIdentity(id int64) *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range []*Identity{m.state.Identity, m.cached} {
		if c != nil && c.ID == id {
			cp := *c
			return &cp
		}
	}
	return nil
}

// identityFrom prefers the server's user object and falls back to the
// token's claims.
func identityFrom(u *api.User, token string) *Identity {
	if u != nil {
		return &Identity{ID: u.ID, Role: u.Role}
	}
	ident := &Identity{}
	if c, ok := parseClaims(token); ok {
		ident.ID, ident.Role = c.ID, c.Role
	}
	return ident
}
