package plugin

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// hostBinaryEnv overrides where the isolated host executable is found.
const hostBinaryEnv = "KESTREL_PLUGIN_HOST"

const hostBinaryName = "kestrel-plugin-host"

const shutdownGrace = 5 * time.Second

// IsolatedProxy is the in-process stand-in for a plugin running under
// the isolated host subprocess. It satisfies the Plugin interface so the
// manager dispatches it like any other slot, but per-frame calls do not
// cross the process boundary yet; the subprocess is supervised for
// lifetime only, and the control channel speaks the shutdown handshake.
type IsolatedProxy struct {
	Base

	name    string
	version string
	session string

	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewIsolatedProxy spawns the isolated host for the given manifest entry
// and plugin artifact. The session token ties host log lines back to
// this engine run.
func NewIsolatedProxy(entry *ManifestEntry, artifactPath string) (*IsolatedProxy, error) {
	bin, err := findHostBinary()
	if err != nil {
		return nil, err
	}

	session := uuid.NewString()
	args := []string{
		"--plugin", artifactPath,
		"--name", entry.Name,
		"--session", session,
	}
	for _, c := range entry.Capabilities {
		args = append(args, "--cap", string(c))
	}

	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("isolated host stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start isolated host: %w", err)
	}
	log.Printf("[plugin:%s] isolated host pid %d session %s", entry.Name, cmd.Process.Pid, session)

	version := entry.Version
	if version == "" {
		version = "0.0.0"
	}
	return &IsolatedProxy{
		name:    entry.Name,
		version: version,
		session: session,
		cmd:     cmd,
		stdin:   stdin,
	}, nil
}

func findHostBinary() (string, error) {
	if p := os.Getenv(hostBinaryEnv); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", hostBinaryEnv, p, ErrHostBinaryNotFound)
		}
		return p, nil
	}
	exe, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(exe), hostBinaryName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if p, err := exec.LookPath(hostBinaryName); err == nil {
		return p, nil
	}
	return "", ErrHostBinaryNotFound
}

func (p *IsolatedProxy) Name() string    { return p.name }
func (p *IsolatedProxy) Version() string { return p.version }

// Session returns the token the host subprocess announces in its logs.
func (p *IsolatedProxy) Session() string { return p.session }

// Build verifies the subprocess survived startup.
func (p *IsolatedProxy) Build(_ *Context) error {
	if p.cmd.ProcessState != nil {
		return fmt.Errorf("isolated host exited during startup: %w", ErrHostTerminated)
	}
	return nil
}

// Shutdown asks the host to exit and waits for it, killing after a
// grace period. Safe to call when the process already left.
func (p *IsolatedProxy) Shutdown(_ *Context) error {
	if p.cmd.Process == nil {
		return nil
	}
	fmt.Fprintln(p.stdin, "exit")
	p.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("isolated host exit: %w", err)
		}
		return nil
	case <-time.After(shutdownGrace):
		log.Printf("[plugin:%s] isolated host unresponsive, killing", p.name)
		p.cmd.Process.Kill()
		<-done
		return fmt.Errorf("plugin %q: %w", p.name, ErrHostTerminated)
	}
}
