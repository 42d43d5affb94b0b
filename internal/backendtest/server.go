package backendtest

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type user struct {
	ID           int64
	Name         string
	Email        string
	Role         string
	RestaurantID int64
	PasswordHash []byte
}

type expenseType struct {
	ID             int64  `json:"id"`
	TypeName       string `json:"type_name"`
	HasSubcategory int    `json:"has_subcategory"`
	IsActive       int    `json:"is_active"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type subcategory struct {
	ID              int64  `json:"id"`
	ExpenseTypeID   int64  `json:"expense_type_id"`
	SubcategoryName string `json:"subcategory_name"`
	IsActive        int    `json:"is_active"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// Server is the stub backend.
type Server struct {
	mux *http.ServeMux

	mu       sync.Mutex
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	nextID   int64
	users    map[string]*user
	types    map[int64]*expenseType
	subs     map[int64]*subcategory
	failures map[string]int
	headers  map[string]http.Header
}

type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens (default one hour).
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		secret:   newSecret(),
		tokenTTL: time.Hour,
		now:      time.Now,
		users:    make(map[string]*user),
		types:    make(map[int64]*expenseType),
		subs:     make(map[int64]*subcategory),
		failures: make(map[string]int),
		headers:  make(map[string]http.Header),
	}
	for _, o := range opts {
		o(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/protected", s.requireAuth(s.handleProtected))

	mux.HandleFunc("GET /api/expense-types", s.requireAuth(s.handleListTypes))
	mux.HandleFunc("POST /api/expense-types", s.requireAuth(s.handleCreateType))
	mux.HandleFunc("PUT /api/expense-types/{id}", s.requireAuth(s.handleRenameType))
	mux.HandleFunc("PATCH /api/expense-types/{id}/activate", s.requireAuth(s.handleSetTypeActive(1)))
	mux.HandleFunc("DELETE /api/expense-types/{id}", s.requireAuth(s.handleSetTypeActive(0)))

	mux.HandleFunc("GET /api/subcategories/{id}/subcategories", s.requireAuth(s.handleListSubs))
	mux.HandleFunc("POST /api/subcategories/{id}/subcategories", s.requireAuth(s.handleCreateSub))
	mux.HandleFunc("PUT /api/subcategories/{id}", s.requireAuth(s.handleRenameSub))
	mux.HandleFunc("DELETE /api/subcategories/{id}", s.requireAuth(s.handleDeactivateSub))
	s.mux = mux

	return s
}

func newSecret() []byte {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return b
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.headers[r.Method+" "+r.URL.Path] = r.Header.Clone()
	key := r.Method + " " + r.URL.Path
	status, fail := s.failures[key]
	if fail {
		delete(s.failures, key)
	}
	s.mu.Unlock()

	if fail {
		writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
		return
	}
	s.mux.ServeHTTP(w, r)
}

// AddUser seeds an account and returns its id.
func (s *Server) AddUser(name, email, password, role string) int64 {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.users[strings.ToLower(email)] = &user{ID: s.nextID, Name: name, Email: email, Role: role, PasswordHash: hash}
	return s.nextID
}

// IssueToken mints a token for an arbitrary identity, e.g. an expired one.
func (s *Server) IssueToken(userID int64, role string, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, _ := GenerateToken(userID, role, s.secret, ttl, s.now())
	return tok
}

// RevokeAll rotates the signing key: every token issued so far stops
// verifying and subsequent authenticated calls answer 401.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = newSecret()
}

// FailNext makes the next request matching "METHOD /api/path" answer status.
func (s *Server) FailNext(methodAndPath string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[methodAndPath] = status
}

// LastHeaders returns the headers of the last request to "METHOD /api/path".
func (s *Server) LastHeaders(methodAndPath string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[methodAndPath]
}

type ctxKey string

const claimsKey ctxKey = "claims"

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeMessage(w, http.StatusUnauthorized, "Access token required")
			return
		}

		s.mu.Lock()
		secret := s.secret
		s.mu.Unlock()

		claims, err := ParseToken(raw, secret)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		Role         string `json:"role"`
		RestaurantID int64  `json:"restaurant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Name == "" || in.Email == "" || in.Password == "" || in.Role == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	s.mu.Lock()
	_, exists := s.users[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if exists {
		writeMessage(w, http.StatusConflict, "User already exists")
		return
	}

	s.AddUser(in.Name, in.Email, in.Password, in.Role)
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.mu.Lock()
	now := s.now()
	tok, err := GenerateToken(u.ID, u.Role, s.secret, s.tokenTTL, now)
	ttl := s.tokenTTL
	s.mu.Unlock()
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   tok,
		"user": map[string]any{
			"id": u.ID, "role": u.Role, "iat": now.Unix(), "exp": now.Add(ttl).Unix(),
		},
	})
}

func (s *Server) handleProtected(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(claimsKey).(*Claims)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Protected route accessed",
		"user": map[string]any{
			"id": c.UserID, "role": c.Role, "iat": c.IssuedAt.Unix(), "exp": c.ExpiresAt.Unix(),
		},
	})
}

func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]expenseType, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, *t)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, map[string]any{"expenseTypes": out})
}

func (s *Server) handleCreateType(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TypeName       string `json:"type_name"`
		HasSubcategory bool   `json:"has_subcategory"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.TypeName) == "" {
		writeMessage(w, http.StatusBadRequest, "type_name is required")
		return
	}

	s.mu.Lock()
	s.nextID++
	ts := s.now().UTC().Format(time.RFC3339)
	t := &expenseType{ID: s.nextID, TypeName: in.TypeName, IsActive: 1, CreatedAt: ts, UpdatedAt: ts}
	if in.HasSubcategory {
		t.HasSubcategory = 1
	}
	s.types[t.ID] = t
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Expense type created successfully", "id": t.ID})
}

func (s *Server) handleRenameType(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TypeName string `json:"type_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.TypeName) == "" {
		writeMessage(w, http.StatusBadRequest, "type_name is required")
		return
	}
	s.withType(w, r, func(t *expenseType) string {
		t.TypeName = in.TypeName
		return "Expense type updated successfully"
	})
}

func (s *Server) handleSetTypeActive(active int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withType(w, r, func(t *expenseType) string {
			t.IsActive = active
			if active == 1 {
				return "Expense type activated successfully"
			}
			return "Expense type deactivated successfully"
		})
	}
}

func (s *Server) withType(w http.ResponseWriter, r *http.Request, fn func(*expenseType) string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid id")
		return
	}

	s.mu.Lock()
	t, ok := s.types[id]
	var msg string
	if ok {
		msg = fn(t)
		t.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()

	if !ok {
		writeMessage(w, http.StatusNotFound, "Expense type not found")
		return
	}
	writeMessage(w, http.StatusOK, msg)
}

func (s *Server) handleListSubs(w http.ResponseWriter, r *http.Request) {
	typeID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid id")
		return
	}

	s.mu.Lock()
	out := make([]subcategory, 0)
	for _, sc := range s.subs {
		if sc.ExpenseTypeID == typeID {
			out = append(out, *sc)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, map[string]any{"subcategories": out})
}

func (s *Server) handleCreateSub(w http.ResponseWriter, r *http.Request) {
	typeID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid id")
		return
	}
	var in struct {
		SubcategoryName string `json:"subcategory_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.SubcategoryName) == "" {
		writeMessage(w, http.StatusBadRequest, "subcategory_name is required")
		return
	}

	s.mu.Lock()
	t, ok := s.types[typeID]
	if ok && t.HasSubcategory == 0 {
		s.mu.Unlock()
		writeMessage(w, http.StatusBadRequest, "Expense type does not allow subcategories")
		return
	}
	if ok {
		s.nextID++
		ts := s.now().UTC().Format(time.RFC3339)
		s.subs[s.nextID] = &subcategory{
			ID: s.nextID, ExpenseTypeID: typeID, SubcategoryName: in.SubcategoryName,
			IsActive: 1, CreatedAt: ts, UpdatedAt: ts,
		}
	}
	s.mu.Unlock()

	if !ok {
		writeMessage(w, http.StatusNotFound, "Expense type not found")
		return
	}
	writeMessage(w, http.StatusCreated, "Subcategory created successfully")
}

func (s *Server) handleRenameSub(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SubcategoryName string `json:"subcategory_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.SubcategoryName) == "" {
		writeMessage(w, http.StatusBadRequest, "subcategory_name is required")
		return
	}
	s.withSub(w, r, func(sc *subcategory) string {
		sc.SubcategoryName = in.SubcategoryName
		return "Subcategory updated successfully"
	})
}

func (s *Server) handleDeactivateSub(w http.ResponseWriter, r *http.Request) {
	s.withSub(w, r, func(sc *subcategory) string {
		sc.IsActive = 0
		return "Subcategory deactivated successfully"
	})
}

func (s *Server) withSub(w http.ResponseWriter, r *http.Request, fn func(*subcategory) string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid id")
		return
	}

	s.mu.Lock()
	sc, ok := s.subs[id]
	var msg string
	if ok {
		msg = fn(sc)
		sc.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()

	if !ok {
		writeMessage(w, http.StatusNotFound, "Subcategory not found")
		return
	}
	writeMessage(w, http.StatusOK, msg)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
