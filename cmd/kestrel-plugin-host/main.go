// Command kestrel-plugin-host runs one untrusted plugin in its own
// process under the engine's supervision. The engine spawns it with the
// plugin artifact, name, session token, and granted capabilities, and
// controls its lifetime over stdin.
package main

import (
	"fmt"
	"os"

	"github.com/kestrel-engine/kestrel/internal/plugin/isolatedhost"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := isolatedhost.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "kestrel-plugin-host: %v\n", err)
		return 2
	}
	svc := isolatedhost.New(opts)
	if err := svc.Run(os.Stdin, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "kestrel-plugin-host: %v\n", err)
		return 1
	}
	return 0
}
