//go:build e2e && unix

package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

// binPath is set by TestMain once the binary is built
var binPath string

const (
	maxOutput   = 1 << 20 // keep the last MiB the app printed
	pollEvery   = 25 * time.Millisecond
	seeTimeout  = 3 * time.Second
	bootTimeout = 5 * time.Second
)

// Keys as the terminal sends them
const (
	KeyEnter     = "\r"
	KeyBackspace = "\x7f"
	KeyCtrlC     = "\x03"
)

var escapes = regexp.MustCompile(
	`\x1b\[[0-9;?]*[ -/]*[@-~]` + // CSI
		`|\x1b\][^\x07]*\x07` + // OSC
		`|\x1b[()][A-Za-z]` + // charset
		`|\x1b[=>]` + // keypad mode
		`|\r`,
)

// App is one imagepick process attached to a pseudo terminal
type App struct {
	t    *testing.T
	home string
	cmd  *exec.Cmd
	tty  *os.File

	mu     sync.Mutex
	output []byte
	exited chan error
}

// NewApp creates an isolated home directory for one picker run. Photo
// folders are created in it with AddFolder before Start.
func NewApp(t *testing.T) *App {
	t.Helper()
	app := &App{t: t, home: t.TempDir(), exited: make(chan error, 1)}
	t.Cleanup(app.kill)
	return app
}

// Home returns the directory the picker scans
func (a *App) Home() string {
	return a.home
}

// Start launches the picker on its home directory with extra arguments
func (a *App) Start(args ...string) {
	a.t.Helper()

	a.cmd = exec.Command(binPath, append([]string{a.home}, args...)...)
	a.cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"LANG=C",
		"LC_ALL=C",
		"HOME="+a.home,
		"XDG_CONFIG_HOME="+filepath.Join(a.home, ".config"),
		"XDG_CACHE_HOME="+filepath.Join(a.home, ".cache"),
	)

	tty, err := pty.StartWithSize(a.cmd, &pty.Winsize{Rows: 40, Cols: 120})
	require.NoError(a.t, err, "failed to start imagepick in a pty")
	a.tty = tty

	go a.capture()
	go func() { a.exited <- a.cmd.Wait() }()
}

func (a *App) capture() {
	buf := make([]byte, 8192)
	for {
		n, err := a.tty.Read(buf)
		if n > 0 {
			a.mu.Lock()
			a.output = append(a.output, buf[:n]...)
			if over := len(a.output) - maxOutput; over > 0 {
				a.output = a.output[over:]
			}
			a.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Press writes keys to the terminal
func (a *App) Press(keys ...string) {
	a.t.Helper()
	for _, k := range keys {
		_, err := a.tty.Write([]byte(k))
		require.NoError(a.t, err, "failed to send %q", k)
	}
}

// Screen returns everything printed so far with escape sequences removed
func (a *App) Screen() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return escapes.ReplaceAllString(string(a.output), "")
}

// Mark returns the current output length; SeeAfter only looks past it
func (a *App) Mark() int {
	return len(a.Screen())
}

// See waits until text shows up anywhere in the output
func (a *App) See(text string) bool {
	a.t.Helper()
	return a.SeeAfter(0, text)
}

// SeeAfter waits until text shows up after mark
func (a *App) SeeAfter(mark int, text string) bool {
	a.t.Helper()
	return a.waitFor(seeTimeout, func(screen string) bool {
		if mark > len(screen) {
			mark = 0
		}
		return strings.Contains(screen[mark:], text)
	})
}

// Ready waits for the folder list to render
func (a *App) Ready() bool {
	a.t.Helper()
	return a.waitFor(bootTimeout, func(screen string) bool {
		return strings.Contains(screen, "All images")
	})
}

func (a *App) waitFor(timeout time.Duration, match func(string) bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if match(a.Screen()) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollEvery)
	}
}

// Exit waits for the process to end and returns its exit error
func (a *App) Exit(timeout time.Duration) error {
	a.t.Helper()
	select {
	case err := <-a.exited:
		a.exited <- err
		return err
	case <-time.After(timeout):
		return errors.New("imagepick is still running")
	}
}

// DumpOnFailure logs the tail of the output when the test failed
func (a *App) DumpOnFailure() {
	if !a.t.Failed() {
		return
	}
	screen := a.Screen()
	if len(screen) > 4096 {
		screen = screen[len(screen)-4096:]
	}
	a.t.Logf("--- imagepick output tail ---\n%s", screen)
}

func (a *App) kill() {
	if a.tty != nil {
		_ = a.tty.Close()
	}
	if a.cmd != nil && a.cmd.Process != nil {
		_ = a.cmd.Process.Kill()
		select {
		case <-a.exited:
		case <-time.After(time.Second):
		}
	}
}
