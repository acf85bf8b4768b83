// Command kestrel runs the engine shell: boundary subsystems, the plugin
// host with builtins and manifest-driven dynamic plugins, and a frame
// loop with a fixed simulation step.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kestrel-engine/kestrel/internal/analytics"
	"github.com/kestrel-engine/kestrel/internal/engine"
	"github.com/kestrel-engine/kestrel/internal/plugin"
)

const fixedStep = 1.0 / 60.0

func main() {
	os.Exit(run())
}

func run() int {
	manifestPath := flag.String("manifest", "plugins.json", "plugin manifest file")
	frames := flag.Int("frames", 0, "stop after this many frames (0 = run until interrupted)")
	fps := flag.Int("fps", 60, "target frames per second")
	watch := flag.Bool("watch", false, "reload plugins when the manifest changes on disk")
	flag.Parse()

	world := engine.NewWorld()
	clock := engine.NewTime()

	manager := plugin.NewManager()
	ctx := plugin.NewContext(plugin.ContextInputs{
		Renderer:    engine.NewRenderer(),
		World:       world,
		Assets:      engine.NewAssetManager(),
		Input:       engine.NewInput(),
		Materials:   engine.NewMaterialRegistry(),
		Meshes:      engine.NewMeshRegistry(),
		Environment: engine.NewEnvironmentRegistry(),
		Time:        clock,
		Emit:        func(w *engine.World, ev engine.Event) { w.PushEvent(ev) },
		Features:    manager.FeatureHandle(),
		Tracker:     manager.TrackerHandle(),
	})

	host := plugin.NewHost(manager, *manifestPath)
	if err := host.RegisterBuiltins(builtins(), ctx); err != nil {
		log.Printf("register builtins: %v", err)
		return 1
	}
	if _, err := host.LoadDynamic(ctx); err != nil {
		log.Printf("load dynamic plugins: %v", err)
	}
	printStatuses(manager.Statuses())

	reload := make(chan struct{}, 1)
	if *watch {
		watcher, err := plugin.WatchManifest(*manifestPath, func() {
			select {
			case reload <- struct{}{}:
			default:
			}
		})
		if err != nil {
			log.Printf("watch manifest: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	tick := time.NewTicker(time.Second / time.Duration(*fps))
	defer tick.Stop()

	last := time.Now()
	var accumulator float64
	frame := 0

loop:
	for {
		select {
		case <-sig:
			log.Println("interrupted")
			break loop
		case <-reload:
			if _, err := host.ReloadDynamic(ctx); err != nil {
				log.Printf("reload plugins: %v", err)
			} else {
				printStatuses(manager.Statuses())
			}
		case now := <-tick.C:
			delta := now.Sub(last)
			last = now
			clock.Advance(delta)
			dt := delta.Seconds()

			manager.Update(ctx, dt)

			accumulator += dt
			for accumulator >= fixedStep {
				manager.FixedUpdate(ctx, fixedStep)
				accumulator -= fixedStep
			}

			manager.HandleEvents(ctx, world.DrainEvents())

			for _, v := range manager.DrainViolationEvents() {
				log.Printf("[plugin:%s] capability violation: %s", v.Plugin, v.Capability)
			}

			frame++
			if *frames > 0 && frame >= *frames {
				break loop
			}
		}
	}

	if a, ok := plugin.Get[*analytics.Plugin](manager, "analytics"); ok {
		snap := a.Counters()
		log.Printf("analytics: %d frames, %d fixed steps, %d events", snap.Frames, snap.FixedSteps, snap.Events)
	}
	manager.Shutdown(ctx)
	return 0
}

func builtins() []plugin.BuiltinFactory {
	return []plugin.BuiltinFactory{
		{
			Name:     "analytics",
			Provides: []string{analytics.FeatureFrames},
			New:      func() plugin.Plugin { return analytics.New() },
		},
	}
}

func printStatuses(statuses []plugin.Status) {
	for _, st := range statuses {
		line := fmt.Sprintf("plugin %-16s %-8s state=%s trust=%s", st.Name, st.Version, st.State, st.Trust)
		if st.Reason != "" {
			line += " (" + st.Reason + ")"
		}
		log.Println(line)
	}
}
