package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/nao1215/nnmdl/internal/httpclient"
)

const (
	loginPage     = "login.php"
	loginReferer  = "index.php?redirect=index.php"
	submitReferer = "login.php?redirect=index.php"
)

// logoutMarker matches the main menu entry shown to a logged-in user.
var logoutMarker = regexp.MustCompile(`^Выход\s*\[\s*(.+?)\s*\]$`)

// State is the login state of a Manager.
type State int

const (
	// LoggedOut means no session is established.
	LoggedOut State = iota
	// LoggingIn means a login round trip is in progress.
	LoggingIn
	// LoggedIn means the session cookies are installed.
	LoggedIn
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged out"
	case LoggingIn:
		return "logging in"
	case LoggedIn:
		return "logged in"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Account is a tracker login.
type Account struct {
	Username string
	Password string
}

// Manager holds the session state of the process.
type Manager struct {
	client   *httpclient.Client
	accounts []Account
	encoding encoding.Encoding
	logger   *slog.Logger

	state  State
	active *Account
}

// Option configures a Manager.
type Option func(*Manager)

// WithEncoding sets the charset the login form is submitted in.
func WithEncoding(enc encoding.Encoding) Option {
	return func(m *Manager) {
		if enc != nil {
			m.encoding = enc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager for the given accounts.
func NewManager(client *httpclient.Client, accounts []Account, opts ...Option) *Manager {
	m := &Manager{
		client:   client,
		accounts: accounts,
		encoding: charmap.Windows1251,
		logger:   slog.Default(),
		state:    LoggedOut,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current login state.
func (m *Manager) State() State {
	return m.state
}

// User returns the active username, or "" when logged out.
func (m *Manager) User() string {
	if m.state != LoggedIn || m.active == nil {
		return ""
	}
	return m.active.Username
}

// Login authenticates with the account at index idx.
func (m *Manager) Login(ctx context.Context, idx int) error {
	if idx < 0 || idx >= len(m.accounts) {
		return fmt.Errorf("%w: index %d of %d", ErrUnknownAccount, idx, len(m.accounts))
	}
	account := m.accounts[idx]

	m.state = LoggingIn
	m.active = nil
	previous := m.client.Jar()
	if err := m.login(ctx, account); err != nil {
		m.client.SetJar(previous)
		m.state = LoggedOut
		m.logger.Debug("login failed", "user", account.Username, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrAuthFailed, account.Username, err)
	}

	m.state = LoggedIn
	m.active = &account
	return nil
}

func (m *Manager) login(ctx context.Context, account Account) error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}
	jar.SetCookies(m.client.BaseURL(), []*http.Cookie{{Name: "ssl", Value: "enable_ssl"}})
	m.client.SetJar(jar)

	page, err := m.client.Document(ctx, httpclient.Get(loginPage, nil, loginReferer))
	if err != nil {
		return fmt.Errorf("failed to load login form: %w", err)
	}
	hidden := loginFields(page)
	m.logger.Debug("got login form", "user", account.Username, "code", hidden.Get("code"))

	if err := m.client.Wait(ctx); err != nil {
		return err
	}

	form, err := m.encodeForm(account, hidden)
	if err != nil {
		return err
	}
	result, err := m.client.Document(ctx, httpclient.Post(loginPage, form, submitReferer))
	if err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	me, ok := LoggedInUser(result)
	if !ok {
		return fmt.Errorf("logout link not found")
	}
	m.logger.Info("logged in", "user", me)
	return nil
}

// loginFields collects the hidden inputs the tracker expects back.
func loginFields(doc *goquery.Document) url.Values {
	fields := url.Values{}
	for _, name := range []string{"redirect", "code", "login"} {
		value, _ := doc.Find(`input[name="` + name + `"]`).First().Attr("value")
		fields.Set(name, value)
	}
	return fields
}

func (m *Manager) encodeForm(account Account, hidden url.Values) (url.Values, error) {
	raw := url.Values{
		"username":  {account.Username},
		"password":  {account.Password},
		"autologin": {"on"},
	}
	for key := range hidden {
		raw.Set(key, hidden.Get(key))
	}

	encoder := m.encoding.NewEncoder()
	form := make(url.Values, len(raw))
	for key, values := range raw {
		for _, v := range values {
			encoded, err := encoder.String(v)
			if err != nil {
				return nil, fmt.Errorf("failed to encode form field %q: %w", key, err)
			}
			form.Add(key, encoded)
		}
	}
	return form, nil
}

// LoggedInUser returns the username shown in the logout menu entry of a page.
func LoggedInUser(doc *goquery.Document) (string, bool) {
	var user string
	doc.Find("a.mainmenu").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if match := logoutMarker.FindStringSubmatch(strings.TrimSpace(s.Text())); match != nil {
			user = match[1]
			return false
		}
		return true
	})
	return user, user != ""
}
