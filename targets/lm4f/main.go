//go:build tinygo && lm4f

// Firmware for the LM4F120 LaunchPad: serves the GPIO command protocol on
// the board's debug serial port.
//
// TinyGo has no built-in lm4f target. This builds against a custom target
// file (lm4f.json: cortex-m4, tag lm4f) whose machine package provides
// Serial on UART0:
//
//	tinygo build -target=./lm4f.json ./targets/lm4f
package main

import (
	"machine"
	"time"

	"lmgpio/core"
	"lmgpio/targets/stellaris"
)

// Red LED on the LaunchPad: output PF1 strength=8ma pad=std value=0
const ledRed core.Descriptor = 0x30000029

var ledPin = core.MakePinSet(core.PortF, 1)

// ledBlink blinks the red LED count times for diagnostics
func ledBlink(gpio *core.Configurator, count int) {
	for i := 0; i < count; i++ {
		gpio.WritePin(ledPin, true)
		time.Sleep(150 * time.Millisecond)
		gpio.WritePin(ledPin, false)
		time.Sleep(150 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)
}

func main() {
	chip := stellaris.NewChip(stellaris.LM4F120, stellaris.MMIO)

	// The protocol owns the serial port; debug text is dropped
	core.SetDebugWriter(func(string) {})
	core.SetChipSupport(chip, core.WithLocker(&core.InterruptLock{}))
	gpio := core.MustGPIO()

	if err := gpio.InitializeIRQs(); err != nil {
		for {
			ledBlink(gpio, 3)
		}
	}
	if err := gpio.Configure(ledRed); err == nil {
		ledBlink(gpio, 1)
	}

	console, err := core.NewConsole(machine.Serial, core.GPIO)
	if err != nil {
		for {
			ledBlink(gpio, 2)
		}
	}

	buf := make([]byte, 64)
	for {
		n := 0
		for n < len(buf) && machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			buf[n] = b
			n++
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		console.Write(buf[:n])
	}
}
