package session

// State is the lifecycle position of a Session.
type State string

const (
	StateAnonymous     State = "anonymous"
	StateVerifying     State = "verifying"
	StateAuthenticated State = "authenticated"
	StateLoggingIn     State = "logging_in"
	StateRegistering   State = "registering"
)

// Op is the auth operation currently in flight.
type Op string

const (
	OpNone     Op = ""
	OpLogin    Op = "login"
	OpRegister Op = "register"
	OpVerify   Op = "verify"
)

// Identity is what the client knows about the signed-in user.
type Identity struct {
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Session is an immutable snapshot of the authentication state.
type Session struct {
	Token           string
	Identity        *Identity
	IsAuthenticated bool
	Loading         bool
	LastError       string
	// RegistrationJustSucceeded is a one-shot flag raised by a successful
	// registration and lowered by ClearRegistrationSuccess or the next
	// register/login.
	RegistrationJustSucceeded bool
	Op                        Op
}

// State derives the lifecycle state from the snapshot.
func (s Session) State() State {
	switch {
	case s.Op == OpLogin:
		return StateLoggingIn
	case s.Op == OpRegister:
		return StateRegistering
	case s.Token == "":
		return StateAnonymous
	case !s.IsAuthenticated:
		return StateVerifying
	default:
		return StateAuthenticated
	}
}

func (s Session) clone() Session {
	if s.Identity != nil {
		id := *s.Identity
		s.Identity = &id
	}
	return s
}

func (s Session) equal(o Session) bool {
	a, b := s, o
	a.Identity, b.Identity = nil, nil
	if a != b {
		return false
	}
	if s.Identity == nil || o.Identity == nil {
		return s.Identity == o.Identity
	}
	return *s.Identity == *o.Identity
}
