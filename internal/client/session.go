// Package client implements the dashboard-side session state machine:
// a single controller object owning the current-user state, a
// throttled re-validation check, and the inactivity auto-logout timer.
// It is constructed once per client context and shared by reference;
// the rest of the frontend only ever reads State() and calls the three
// operations Login, Logout and CheckAuth.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"
)

// State is the lifecycle of a browser-side session: Loading until the
// first server check completes, then Authenticated or Anonymous.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// User mirrors the user payload the auth endpoints return.
type User struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Config tunes a Controller. Zero values pick the defaults the
// dashboard ships with: a 2 hour inactivity window and a 5 second
// re-validation throttle.
type Config struct {
	BaseURL           string
	HTTPClient        *http.Client  // optional; a cookie jar is installed if absent
	InactivityTimeout time.Duration // idle time before forced logout
	CheckInterval     time.Duration // minimum gap between network re-checks
}

const (
	defaultInactivity = 2 * time.Hour
	defaultCheckEvery = 5 * time.Second
)

// Controller is the session state machine. All fields behind mu; the
// HTTP client is used outside the lock so a slow server never blocks
// state reads.
type Controller struct {
	baseURL    string
	httpc      *http.Client
	inactivity time.Duration
	checkEvery time.Duration

	mu        sync.Mutex
	state     State
	user      *User
	lastCheck time.Time
	timer     *time.Timer // at most one pending auto-logout callback
}

// New builds a Controller in the Loading state. The cookie jar on the
// HTTP client is what carries the session token between calls.
func New(cfg Config) (*Controller, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("client: BaseURL required")
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if httpc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpc.Jar = jar
	}
	inactivity := cfg.InactivityTimeout
	if inactivity <= 0 {
		inactivity = defaultInactivity
	}
	checkEvery := cfg.CheckInterval
	if checkEvery <= 0 {
		checkEvery = defaultCheckEvery
	}
	return &Controller{
		baseURL:    cfg.BaseURL,
		httpc:      httpc,
		inactivity: inactivity,
		checkEvery: checkEvery,
		state:      StateLoading,
	}, nil
}

// Start performs the single mount-time fetch of current-user state.
// Loading is cleared regardless of outcome: a dead server leaves the
// client Anonymous, never stuck in Loading.
func (c *Controller) Start(ctx context.Context) {
	user, err := c.fetchMe(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastCheck = time.Now()
	if err != nil || user == nil {
		c.state = StateAnonymous
		c.user = nil
		return
	}
	c.state = StateAuthenticated
	c.user = user
	c.arm()
}

// State returns the current state and user snapshot.
func (c *Controller) State() (State, *User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.user
}

// Login submits credentials and, on success, transitions to
// Authenticated and arms the inactivity timer. Arming implicitly
// disarms any prior timer, so repeated logins never stack callbacks.
func (c *Controller) Login(ctx context.Context, email, password string) (*User, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/admin/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Success bool   `json:"success"`
		User    *User  `json:"user"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK || !out.Success || out.User == nil {
		return nil, fmt.Errorf("login failed: %s", out.Error)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateAuthenticated
	c.user = out.User
	c.lastCheck = time.Now()
	c.arm()
	return out.User, nil
}

// Logout clears local state and cancels the timer first, then calls
// the server. The local guarantee "I am logged out here" holds even
// when the network call fails; in that case the server session stays
// live until its absolute expiry and the call's error is returned.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateAnonymous
	c.user = nil
	c.lastCheck = time.Time{}
	c.disarm()
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/admin/auth/logout", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("logout failed: status %d", resp.StatusCode)
	}
	return nil
}

// CheckAuth re-validates the session against the server. Calls within
// CheckInterval of the previous network check return the cached state
// without a round trip, bounding request volume under bursty UI
// re-renders. A definitive rejection from the server transitions to
// Anonymous; a transport error keeps the cached state and reports the
// error, since a blip must not force a logout by itself.
func (c *Controller) CheckAuth(ctx context.Context) (State, error) {
	c.mu.Lock()
	if !c.lastCheck.IsZero() && time.Since(c.lastCheck) < c.checkEvery {
		st := c.state
		c.mu.Unlock()
		return st, nil
	}
	c.mu.Unlock()

	user, err := c.fetchMe(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return c.state, err
	}
	c.lastCheck = time.Now()
	if user == nil {
		if c.state == StateAuthenticated {
			c.disarm()
		}
		c.state = StateAnonymous
		c.user = nil
		return c.state, nil
	}
	if c.state != StateAuthenticated {
		// Became authenticated through this check (e.g. another tab
		// logged in); start the inactivity window now.
		c.arm()
	}
	c.state = StateAuthenticated
	c.user = user
	return c.state, nil
}

// fetchMe asks the server who the cookie belongs to. A 401 means
// "nobody" and returns (nil, nil); only transport-level problems
// surface as errors.
func (c *Controller) fetchMe(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/admin/auth/me", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check auth: status %d", resp.StatusCode)
	}
	var out struct {
		Success bool  `json:"success"`
		User    *User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if !out.Success || out.User == nil {
		return nil, nil
	}
	return out.User, nil
}

// arm starts the inactivity timer, stopping any pending one first so
// at most one expiry callback exists at any time. Callers hold mu.
func (c *Controller) arm() {
	c.disarm()
	c.timer = time.AfterFunc(c.inactivity, c.onInactivity)
}

// disarm cancels the pending timer if any. Callers hold mu.
func (c *Controller) disarm() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// onInactivity fires once when the idle window elapses and logs out
// unconditionally. If an explicit logout already happened the state is
// Anonymous and the callback does nothing, so the transition happens
// exactly once.
func (c *Controller) onInactivity() {
	c.mu.Lock()
	fire := c.state == StateAuthenticated
	c.mu.Unlock()
	if !fire {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = c.Logout(ctx)
}
