package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/restodash/internal/client/api"
	"github.com/dmitrijs2005/restodash/internal/client/config"
	"github.com/dmitrijs2005/restodash/internal/client/notify"
	"github.com/dmitrijs2005/restodash/internal/client/preferences"
	"github.com/dmitrijs2005/restodash/internal/client/router"
	"github.com/dmitrijs2005/restodash/internal/client/services"
	"github.com/dmitrijs2005/restodash/internal/client/session"
	"github.com/dmitrijs2005/restodash/internal/client/storage"
	"github.com/dmitrijs2005/restodash/internal/logging"
)

// Streams are the terminal the App talks to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process's standard streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

type App struct {
	config   *config.Config
	out      io.Writer
	reader   *bufio.Reader
	log      logging.Logger
	db       *storage.DB
	session  *session.Manager
	prefs    *preferences.Store
	surface  *preferences.Document
	history  *router.History
	expenses services.ExpenseService

	unsubscribe func()
}

// NewApp opens local storage and wires the client together. Nothing is
// loaded and no request is made until Start.
func NewApp(ctx context.Context, c *config.Config, s Streams) (*App, error) {
	log := logging.New(s.Err, c.LogFormat, c.LogLevel)

	db, err := storage.Open(ctx, c.StoragePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.StoragePath, "error", err)
		return nil, err
	}

	var mgr *session.Manager
	client, err := api.New(c.APIBaseURL,
		api.WithTimeout(c.RequestTimeout),
		api.WithTokenSource(func() string { return mgr.Token() }),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	history := router.NewHistory(router.PathRoot)
	history.OnNavigate(func(path string) {
		log.Debug(ctx, "navigated", "path", path)
	})
	notifier := notify.NewWriter(s.Out)

	mgr = session.NewManager(client, db.Bucket(storage.NamespaceSession),
		session.WithLogger(log.With("component", "session")),
		session.WithNotifier(notifier),
		session.WithNavigator(history),
	)

	doc := preferences.NewDocument()
	prefs := preferences.NewStore(db.Bucket(storage.NamespacePreferences), doc,
		preferences.WithLogger(log.With("component", "preferences")))

	return &App{
		config:   c,
		out:      s.Out,
		reader:   bufio.NewReader(s.In),
		log:      log,
		db:       db,
		session:  mgr,
		prefs:    prefs,
		surface:  doc,
		history:  history,
		expenses: services.NewExpenseService(client, mgr, notifier, log.With("component", "expenses")),
	}, nil
}

// Start loads preferences, restores the stored session (waiting for its
// verification) and renders the landing route.
func (a *App) Start(ctx context.Context) error {
	if err := a.prefs.Load(ctx); err != nil {
		a.log.Warn(ctx, "using default preferences", "error", err)
	}

	a.unsubscribe = a.session.Subscribe(func(s session.Session) {
		a.log.Debug(ctx, "session changed", "state", s.State(), "loading", s.Loading)
	})

	h, err := a.session.Start(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if h != nil {
		fmt.Fprintln(a.out, "Verifying saved session...")
		if err := h.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(a.out, "Saved session is no longer valid, please login.")
		}
	}

	return a.Go(ctx, a.history.Current())
}

// Run starts the App and serves the REPL until EOF or exit.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to restodash (type 'help' for commands)")
	if err := a.Start(ctx); err != nil {
		return err
	}
	runREPL(ctx, a, a.status, a.reader, a.out)
	return nil
}

// Close cancels in-flight auth work and releases storage.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.session.Close()
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().IsAuthenticated
}

// status is the prompt decoration: current route and who is signed in.
func (a *App) status() string {
	s := a.session.Snapshot()
	who := "anonymous"
	switch s.State() {
	case session.StateAuthenticated:
		who = s.Identity.Email
		if who == "" {
			who = fmt.Sprintf("user #%d", s.Identity.ID)
		}
	case session.StateVerifying:
		who = "verifying"
	}
	return fmt.Sprintf("%s (%s)", a.history.Current(), who)
}
