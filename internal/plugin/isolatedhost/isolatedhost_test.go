package isolatedhost

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kestrel-engine/kestrel/internal/plugin"
)

// hostedStub stands in for a loaded shared-object plugin.
type hostedStub struct {
	plugin.Base
	name string
}

func (h *hostedStub) Name() string { return h.name }

func stubService(opts Options) *Service {
	svc := New(opts)
	svc.load = func(string) (plugin.Plugin, error) {
		return &hostedStub{name: opts.Name}, nil
	}
	return svc
}

func TestParseArgs(t *testing.T) {
	opts, err := ParseArgs([]string{
		"--plugin", "pack.so",
		"--name", "pack",
		"--session", "abc-123",
		"--cap", "world",
		"--cap", "events",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.PluginPath != "pack.so" || opts.Name != "pack" || opts.Session != "abc-123" {
		t.Errorf("opts = %+v", opts)
	}
	if !reflect.DeepEqual(opts.Capabilities, []string{"world", "events"}) {
		t.Errorf("capabilities = %v", opts.Capabilities)
	}
}

func TestParseArgsErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"no plugin", []string{"--name", "pack"}},
		{"no name", []string{"--plugin", "pack.so"}},
		{"dangling flag", []string{"--plugin", "pack.so", "--name"}},
		{"unknown flag", []string{"--plugin", "pack.so", "--name", "pack", "--color", "red"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseArgs(tc.args); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRunExitCommand(t *testing.T) {
	svc := stubService(Options{PluginPath: "pack.so", Name: "pack", Session: "s1"})
	var logBuf strings.Builder
	if err := svc.Run(strings.NewReader("ping\nEXIT\n"), &logBuf); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := logBuf.String()
	if !strings.Contains(out, `plugin "pack"`) {
		t.Errorf("missing announce line: %q", out)
	}
	if !strings.Contains(out, "unknown command") {
		t.Errorf("unrecognized line should be logged: %q", out)
	}
	if !strings.Contains(out, "shutting down") {
		t.Errorf("missing shutdown line: %q", out)
	}
}

func TestRunEOFShutsDown(t *testing.T) {
	svc := stubService(Options{PluginPath: "pack.so", Name: "pack"})
	var logBuf strings.Builder
	if err := svc.Run(strings.NewReader(""), &logBuf); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(logBuf.String(), "shutting down") {
		t.Error("EOF must shut the host down cleanly")
	}
}

func TestRunLoadsBeforeAnnouncing(t *testing.T) {
	svc := New(Options{PluginPath: t.TempDir() + "/ghost.so", Name: "ghost"})
	var logBuf strings.Builder
	err := svc.Run(strings.NewReader("exit\n"), &logBuf)
	if err == nil {
		t.Fatal("expected load failure for a missing artifact")
	}
	if !strings.Contains(err.Error(), "ghost.so") {
		t.Errorf("error should name the artifact: %v", err)
	}
	if logBuf.Len() != 0 {
		t.Errorf("nothing may be announced before the plugin loads: %q", logBuf.String())
	}
}

func TestRunRejectsIncompatiblePlugin(t *testing.T) {
	svc := New(Options{PluginPath: "newer.so", Name: "newer"})
	svc.load = func(string) (plugin.Plugin, error) {
		return nil, plugin.ErrAPIVersionMismatch
	}
	var logBuf strings.Builder
	err := svc.Run(strings.NewReader(""), &logBuf)
	if !errors.Is(err, plugin.ErrAPIVersionMismatch) {
		t.Fatalf("expected ErrAPIVersionMismatch, got %v", err)
	}
	if strings.Contains(logBuf.String(), "shutting down") {
		t.Error("host must not reach the control loop with an unloadable plugin")
	}
}
