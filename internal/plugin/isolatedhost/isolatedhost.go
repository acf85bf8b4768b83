// Package isolatedhost implements the control loop of the out-of-process
// plugin host. The engine supervises this process for lifetime; the
// control channel on stdin currently understands only the shutdown
// handshake, leaving richer per-frame dispatch to a future protocol
// revision.
package isolatedhost

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kestrel-engine/kestrel/internal/plugin"
)

// Options describe one hosted plugin, parsed from the command line the
// engine spawns this process with.
type Options struct {
	PluginPath   string
	Name         string
	Session      string
	Capabilities []string
}

// ParseArgs reads the supervisor's argument list. Flags may repeat
// (--cap) and every flag takes a value.
func ParseArgs(args []string) (Options, error) {
	var opts Options
	for i := 0; i < len(args); i++ {
		flag := args[i]
		if i+1 >= len(args) {
			return Options{}, fmt.Errorf("flag %s missing value", flag)
		}
		value := args[i+1]
		i++
		switch flag {
		case "--plugin":
			opts.PluginPath = value
		case "--name":
			opts.Name = value
		case "--session":
			opts.Session = value
		case "--cap":
			opts.Capabilities = append(opts.Capabilities, value)
		default:
			return Options{}, fmt.Errorf("unknown flag %s", flag)
		}
	}
	if opts.PluginPath == "" {
		return Options{}, fmt.Errorf("--plugin is required")
	}
	if opts.Name == "" {
		return Options{}, fmt.Errorf("--name is required")
	}
	return opts, nil
}

// Service runs the host loop for one plugin.
type Service struct {
	opts Options
	load func(path string) (plugin.Plugin, error)
}

func New(opts Options) *Service {
	return &Service{
		opts: opts,
		load: func(path string) (plugin.Plugin, error) {
			// Go never unmaps a loaded object; the library handle needs
			// no further bookkeeping here.
			p, _, err := plugin.NewLoader().Open(path)
			return p, err
		},
	}
}

// Run loads the plugin artifact, announces it, then consumes control
// lines until "exit" (case-insensitive) or EOF, either of which shuts the
// host down cleanly. A missing or ABI-incompatible artifact fails before
// the control loop is entered.
func (s *Service) Run(control io.Reader, logw io.Writer) error {
	hosted, err := s.load(s.opts.PluginPath)
	if err != nil {
		return fmt.Errorf("load plugin %s: %w", s.opts.PluginPath, err)
	}
	fmt.Fprintf(logw, "isolated host: plugin %q (%s) artifact %s session %s caps %s\n",
		s.opts.Name, hosted.Version(), s.opts.PluginPath, s.opts.Session,
		strings.Join(s.opts.Capabilities, ","))

	scanner := bufio.NewScanner(control)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			break
		}
		if line != "" {
			fmt.Fprintf(logw, "isolated host: unknown command %q\n", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("control channel: %w", err)
	}
	fmt.Fprintf(logw, "isolated host: plugin %q shutting down\n", s.opts.Name)
	return nil
}
