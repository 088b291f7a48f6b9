package main

import (
	"flag"
	"fmt"
	"os"

	"lmgpio/core"
	"lmgpio/host/board"
	"lmgpio/host/console"
	"lmgpio/host/mcu"
	"lmgpio/host/serial"
	"lmgpio/protocol"
	"lmgpio/targets/stellaris"
)

var (
	device    = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud      = flag.Int("baud", 115200, "Baud rate")
	boardFile = flag.String("board", "", "YAML pin map to load")
	sim       = flag.String("sim", "", "Simulate a chip in process (lm3s6965, lm3s9b96, lm4f120) instead of opening -device")
	command   = flag.String("c", "", "Run one command and exit")
	verbose   = flag.Bool("verbose", false, "Print device log lines as they arrive")
	version   = flag.Bool("version", false, "Print the protocol version and exit")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("gpiocfg protocol %s\n", protocol.Version)
		return
	}

	var b *board.Board
	if *boardFile != "" {
		var err error
		if b, err = board.Load(*boardFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	m, err := connect(b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	if *verbose {
		m.OnLog(func(s string) { fmt.Fprintln(os.Stderr, "mcu:", s) })
	}

	c := console.New(m, b, os.Stdout)
	if *command != "" {
		if err := c.Exec(*command); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			m.Close()
			os.Exit(1)
		}
		return
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	if err := c.Run(os.Stdin, "> "); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		m.Close()
		os.Exit(1)
	}
}

// connect opens the device, or builds a simulated one for -sim. A board
// file for another chip only draws a warning.
func connect(b *board.Board) (*mcu.MCU, error) {
	if *sim == "" {
		cfg := serial.DefaultConfig(*device)
		cfg.Baud = *baud
		fmt.Printf("Connecting to %s...\n", *device)
		return mcu.Connect(cfg)
	}

	v, err := stellaris.LookupVariant(*sim)
	if err != nil {
		return nil, fmt.Errorf("-sim %q: %w", *sim, err)
	}
	if b != nil && b.Variant.Name != v.Name {
		fmt.Fprintf(os.Stderr, "Warning: board is for %s, simulating %s\n", b.Variant.Name, v.Name)
	}

	gpio := core.NewConfigurator(stellaris.NewChip(v, stellaris.NewSimBus(v)))
	if err := gpio.InitializeIRQs(); err != nil {
		return nil, err
	}
	fmt.Printf("Simulating %s (%d ports)\n", v.Name, v.PortCount())
	return mcu.Simulate(mcu.SimDevice(gpio))
}
