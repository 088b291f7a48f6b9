// Package console implements the interactive command language of gpiocfg.
// Lines are split shell-style, so dump labels may be quoted:
//
//	config PF1 output strength=8ma value=1
//	irq sw1 enable
//	dump PF1 "after config"
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"lmgpio/core"
	"lmgpio/host/board"
)

// ErrQuit is returned by Exec for quit/exit
var ErrQuit = errors.New("quit")

// ErrUsage is wrapped by errors about the command line itself
var ErrUsage = errors.New("usage")

// Target executes GPIO operations; *mcu.MCU is the usual one
type Target interface {
	Configure(d core.Descriptor) error
	Write(ps core.PinSet, value bool) error
	Read(ps core.PinSet) (bool, error)
	Dump(ps core.PinSet, label string) ([]string, error)
	SetIRQ(ps core.PinSet, action uint8) error
}

// Console runs command lines against a target
type Console struct {
	target Target
	board  *board.Board // optional, for pin names
	out    io.Writer
}

// New creates a console printing to out. b may be nil.
func New(target Target, b *board.Board, out io.Writer) *Console {
	return &Console{target: target, board: b, out: out}
}

type command struct {
	args  string
	help  string
	run   func(c *Console, args []string) error
	nargs int // minimum
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"config": {"<pin> <function> [strength=..] [pad=..] [trigger=..] [alt=..] [value=..]", "configure a pin", (*Console).config, 2},
		"raw":    {"<descriptor>", "configure from an encoded descriptor", (*Console).raw, 1},
		"apply":  {"[name...]", "configure board pins (all if none named)", (*Console).apply, 0},
		"write":  {"<pin> <0|1>", "drive a pin", (*Console).write, 2},
		"read":   {"<pin>", "sample a pin", (*Console).read, 1},
		"dump":   {"<pin> [label]", "dump the registers of the pin's port", (*Console).dump, 1},
		"irq":    {"<pin> <enable|disable|clear>", "control a pin interrupt", (*Console).irq, 2},
		"decode": {"<descriptor>", "describe an encoded descriptor", (*Console).decode, 1},
		"pins":   {"", "list board pins", (*Console).pins, 0},
		"help":   {"", "show this help", (*Console).help, 0},
	}
}

// Exec runs one command line. Empty lines and # comments do nothing.
func (c *Console) Exec(line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(words) == 0 {
		return nil
	}

	name := strings.ToLower(words[0])
	switch name {
	case "quit", "exit", "q":
		return ErrQuit
	case "?":
		name = "help"
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q (try help)", ErrUsage, words[0])
	}
	args := words[1:]
	if len(args) < cmd.nargs {
		return fmt.Errorf("%w: %s %s", ErrUsage, name, cmd.args)
	}
	return cmd.run(c, args)
}

// Run executes lines from r until EOF or quit. Command errors are printed
// and do not stop the loop.
func (c *Console) Run(r io.Reader, prompt string) error {
	scanner := bufio.NewScanner(r)
	for {
		if prompt != "" {
			fmt.Fprint(c.out, prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		err := c.Exec(scanner.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

// pin resolves a board pin name or a "PF1" style name
func (c *Console) pin(s string) (core.PinSet, error) {
	if c.board != nil {
		if p, ok := c.board.Lookup(s); ok {
			return p.Descriptor.PinSet(), nil
		}
	}
	ps, err := core.ParsePinName(s)
	if err != nil {
		return 0, fmt.Errorf("%w: no pin named %q", ErrUsage, s)
	}
	return ps, nil
}

func parseDescriptor(s string) (core.Descriptor, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad descriptor %q", ErrUsage, s)
	}
	return core.Descriptor(v), nil
}

func (c *Console) configure(d core.Descriptor) error {
	if err := c.target.Configure(d); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: %s\n", hex(uint32(d)), d)
	return nil
}

func (c *Console) config(args []string) error {
	ps, err := c.pin(args[0])
	if err != nil {
		return err
	}
	spec := board.PinSpec{Pin: ps.String(), Function: args[1]}
	for _, kv := range args[2:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("%w: expected key=value, got %q", ErrUsage, kv)
		}
		switch strings.ToLower(k) {
		case "strength":
			spec.Strength = v
		case "pad":
			spec.Pad = v
		case "trigger":
			spec.Trigger = v
		case "alt", "value":
			n, err := strconv.ParseUint(v, 0, 8)
			if err != nil {
				return fmt.Errorf("%w: %s=%q", ErrUsage, k, v)
			}
			if strings.ToLower(k) == "alt" {
				spec.Alt = uint8(n)
			} else {
				spec.Value = uint8(n)
			}
		default:
			return fmt.Errorf("%w: unknown field %q", ErrUsage, k)
		}
	}
	d, err := spec.Descriptor()
	if err != nil {
		return err
	}
	return c.configure(d)
}

func (c *Console) raw(args []string) error {
	d, err := parseDescriptor(args[0])
	if err != nil {
		return err
	}
	return c.configure(d)
}

func (c *Console) apply(args []string) error {
	if c.board == nil {
		return fmt.Errorf("%w: no board file loaded", ErrUsage)
	}
	if len(args) == 0 {
		for _, p := range c.board.Pins {
			if err := c.configure(p.Descriptor); err != nil {
				return fmt.Errorf("%s: %w", p.Name, err)
			}
		}
		return nil
	}
	for _, name := range args {
		p, ok := c.board.Lookup(name)
		if !ok {
			return fmt.Errorf("%w: board has no pin %q", ErrUsage, name)
		}
		if err := c.configure(p.Descriptor); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func parseLevel(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "high", "on":
		return true, nil
	case "0", "low", "off":
		return false, nil
	}
	return false, fmt.Errorf("%w: bad level %q", ErrUsage, s)
}

func (c *Console) write(args []string) error {
	ps, err := c.pin(args[0])
	if err != nil {
		return err
	}
	v, err := parseLevel(args[1])
	if err != nil {
		return err
	}
	return c.target.Write(ps, v)
}

func (c *Console) read(args []string) error {
	ps, err := c.pin(args[0])
	if err != nil {
		return err
	}
	v, err := c.target.Read(ps)
	if err != nil {
		return err
	}
	level := 0
	if v {
		level = 1
	}
	fmt.Fprintf(c.out, "%s = %d\n", ps, level)
	return nil
}

func (c *Console) dump(args []string) error {
	ps, err := c.pin(args[0])
	if err != nil {
		return err
	}
	label := strings.Join(args[1:], " ")
	lines, err := c.target.Dump(ps, label)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Fprintln(c.out, l)
	}
	return nil
}

var irqActions = map[string]uint8{
	"disable": core.IRQDisable,
	"enable":  core.IRQEnable,
	"clear":   core.IRQClear,
}

func (c *Console) irq(args []string) error {
	ps, err := c.pin(args[0])
	if err != nil {
		return err
	}
	action, ok := irqActions[strings.ToLower(args[1])]
	if !ok {
		return fmt.Errorf("%w: irq action must be enable, disable or clear", ErrUsage)
	}
	return c.target.SetIRQ(ps, action)
}

func (c *Console) decode(args []string) error {
	d, err := parseDescriptor(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: %s\n", hex(uint32(d)), d)
	return nil
}

func (c *Console) pins(args []string) error {
	if c.board == nil {
		fmt.Fprintln(c.out, "no board file loaded")
		return nil
	}
	fmt.Fprintf(c.out, "%s:\n", c.board.Variant.Name)
	for _, p := range c.board.Pins {
		fmt.Fprintf(c.out, "  %-12s %s\n", p.Name, p.Descriptor)
	}
	return nil
}

var helpOrder = []string{"config", "raw", "apply", "write", "read", "dump", "irq", "decode", "pins", "help"}

func (c *Console) help(args []string) error {
	fmt.Fprintln(c.out, "Available commands:")
	for _, name := range helpOrder {
		cmd := commands[name]
		fmt.Fprintf(c.out, "  %-7s %-40s %s\n", name, cmd.args, cmd.help)
	}
	fmt.Fprintln(c.out, "  quit    exit the console")
	return nil
}

func hex(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
