// Command simctl issues control commands to a running simulator: start, stop,
// reset, config updates, and manual passenger/button injection.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmelton/liftview/internal/api"
	"github.com/dmelton/liftview/internal/config"
	"github.com/dmelton/liftview/internal/gateway"
	"github.com/dmelton/liftview/internal/model"
	"github.com/dmelton/liftview/internal/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: simctl [flags] <command>

Commands:
  start          start the simulation
  stop           pause the simulation
  reset          reset the simulation to its initial state
  status         print the simulator status
  config         print the current simulation configuration
  set-config     update the simulation configuration
  add-passenger  create a passenger (requires -from and -to)
  press-button   press a call button (requires -floor and -direction)

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	var (
		serverURL = flag.String("server", config.DefaultRestURL, "simulator REST base URL")
		timeout   = flag.Duration("timeout", 10*time.Second, "request timeout")
		verbose   = flag.Bool("v", false, "enable debug logging")

		elevators = flag.Int("elevators", 0, "number of elevators (start, set-config)")
		floors    = flag.Int("floors", 0, "number of floors (start, set-config)")
		timeScale = flag.Float64("time-scale", 0, "simulation time scale (start, set-config)")
		rate      = flag.Float64("rate", 0, "passenger arrival rate (start, set-config)")

		from      = flag.Int("from", 0, "passenger start floor (add-passenger)")
		to        = flag.Int("to", 0, "passenger destination floor (add-passenger)")
		floor     = flag.Int("floor", 0, "call button floor (press-button)")
		direction = flag.String("direction", "", "call button direction, up or down (press-button)")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := api.NewClient(*serverURL,
		api.WithLogger(logger),
		api.WithTimeout(*timeout),
	)
	gw := gateway.New(client, store.New(0, logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var err error
	switch command {
	case "start":
		err = gw.Start(ctx, simConfig(*elevators, *floors, *timeScale, *rate))
		if err == nil {
			fmt.Println("simulation started")
		}

	case "stop":
		err = gw.Stop(ctx)
		if err == nil {
			fmt.Println("simulation stopped")
		}

	case "reset":
		err = gw.Reset(ctx)
		if err == nil {
			fmt.Println("simulation reset")
		}

	case "status":
		status, serr := client.GetStatus(ctx)
		err = serr
		if err == nil {
			err = printJSON(status)
		}

	case "config":
		cfg, cerr := client.GetConfig(ctx)
		err = cerr
		if err == nil {
			err = printJSON(cfg)
		}

	case "set-config":
		err = gw.UpdateConfig(ctx, simConfig(*elevators, *floors, *timeScale, *rate))
		if err == nil {
			fmt.Println("configuration updated")
		}

	case "add-passenger":
		p, perr := gw.AddPassenger(ctx, *from, *to)
		err = perr
		if err == nil {
			err = printJSON(p)
		}

	case "press-button":
		ev, berr := gw.PressButton(ctx, *floor, *direction)
		err = berr
		if err == nil {
			err = printJSON(ev)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "simctl: %v\n", err)
		os.Exit(1)
	}
}

// simConfig builds a config from whichever flags were set; zero values are
// omitted from the request body and left to the server's current settings.
func simConfig(elevators, floors int, timeScale, rate float64) model.SimulationConfig {
	return model.SimulationConfig{
		NumElevators:  elevators,
		NumFloors:     floors,
		TimeScale:     timeScale,
		PassengerRate: rate,
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
