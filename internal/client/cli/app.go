package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/client/session"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// sessionStore remembers the login between runs.
type sessionStore interface {
	Load(ctx context.Context) (session.Session, error)
	Save(ctx context.Context, s session.Session) error
	Clear(ctx context.Context) error
	Close() error
}

type App struct {
	config   *config.Config
	api      client.Client
	sessions sessionStore
	email    string
	Mode     Mode
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", c.ServerURL)
	}

	sessions, err := session.Open(ctx, c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	return &App{
		config:   c,
		api:      api,
		sessions: sessions,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

func (app *App) setMode(mode Mode) {
	if app.Mode != mode {
		app.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.Token() != ""
}

// checkOnline pings the server and records the result in Mode.
func (a *App) checkOnline(ctx context.Context) {
	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) getStatus() string {
	s := ""
	if a.email != "" {
		s = a.email + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// restoreSession installs the token saved by a previous run, if any.
func (a *App) restoreSession(ctx context.Context) {
	s, err := a.sessions.Load(ctx)
	if err != nil {
		log.Printf("cannot load saved session: %v", err)
		return
	}
	if s.Empty() {
		return
	}
	a.api.SetToken(s.Token)
	a.email = s.Email
}

func (a *App) saveSession(ctx context.Context) {
	s := session.Session{Email: a.email, Token: a.api.Token()}
	if err := a.sessions.Save(ctx, s); err != nil {
		log.Printf("cannot save session: %v", err)
	}
}

func (a *App) clearSession(ctx context.Context) {
	a.api.Logout()
	a.email = ""
	if err := a.sessions.Clear(ctx); err != nil {
		log.Printf("cannot clear session: %v", err)
	}
}

// Run restores any saved session, checks connectivity and then serves the
// REPL on stdin until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.sessions.Close(); err != nil {
			log.Printf("cannot close session store: %v", err)
		}
	}()

	fmt.Fprintln(a.out, "Welcome to authkeeper CLI (type 'help' for commands)")
	a.restoreSession(ctx)
	a.checkOnline(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}
