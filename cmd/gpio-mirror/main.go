// Command gpio-mirror mirrors two switch inputs onto a bank of sixteen outputs.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/gpio-mirror/internal/gpio"
	"github.com/sweeney/gpio-mirror/internal/mirror"
	"github.com/sweeney/gpio-mirror/internal/status"
)

func main() {
	chip := flag.String("chip", "gpiochip0", "GPIO chip name or device path")
	printState := flag.Bool("print-state", false, "Print switch state and exit")

	flag.Parse()

	if err := run(*chip, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(chip string, printState bool) error {
	bank, err := gpio.NewChip(chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := bank.Close(); err != nil {
			log.Printf("gpio close: %v", err)
		}
	}()

	// Print state mode
	if printState {
		return printSwitches(bank, os.Stdout)
	}

	tracker := status.NewTracker(time.Now(), chip)
	if err := mirror.New(bank, tracker).Init(); err != nil {
		return fmt.Errorf("init mirror: %w", err)
	}

	log.Printf("started: chip=%s inputs=%v outputs=%v initial=%#x",
		chip, gpio.Pins(mirror.InputMask), gpio.Pins(mirror.OutputMask), mirror.InitialOutput)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runLoop(tracker, sigCh)
}

// runLoop idles until a signal arrives. Edges are handled on the bank's
// dispatch goroutine, not here.
func runLoop(tracker *status.Tracker, sig <-chan os.Signal) error {
	s := <-sig
	log.Printf("received %v, shutting down", s)

	snap := tracker.Snapshot()
	log.Printf("stopped: uptime=%v edges=%d errors=%d output=%#x",
		snap.Uptime().Truncate(time.Second), snap.Edges, snap.Errors, snap.Output)
	if snap.LastError != "" {
		log.Printf("last handler error: %s", snap.LastError)
	}
	return nil
}

// printSwitches requests only the switch inputs, so the outputs are left
// untouched, and prints their state.
func printSwitches(bank gpio.Bank, w io.Writer) error {
	if err := bank.SetInputs(mirror.InputMask, gpio.BiasPullUp); err != nil {
		return fmt.Errorf("configure inputs: %w", err)
	}
	all, err := bank.Get()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	sw := mirror.Sample(all)
	fmt.Fprintf(w, "SW_R: %s, SW_L: %s (output %d)\n", switchString(sw&1), switchString(sw&2), sw)
	return nil
}

func switchString(bit uint32) string {
	if bit != 0 {
		return "RELEASED"
	}
	return "PRESSED"
}
