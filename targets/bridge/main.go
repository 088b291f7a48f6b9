//go:build tinygo && rp2040

// Firmware for an RP2040 board wired as a register bridge: the Stellaris
// part sits on I2C0 behind a debug bridge that maps 32-bit loads and
// stores, and the GPIO command protocol is served on USB serial.
//
// The target chip and bridge address are set at link time:
//
//	tinygo flash -target=pico -ldflags="-X main.variant=lm3s9b96" ./targets/bridge
package main

import (
	"machine"
	"strconv"
	"time"

	"lmgpio/core"
	"lmgpio/targets/stellaris"
)

var (
	variant = "lm4f120"
	address = "42" // 7-bit bridge address, decimal
)

const i2cFrequency = 400 * machine.KHz

func bridgeAddress() uint16 {
	a, err := strconv.ParseUint(address, 10, 7)
	if err != nil {
		return 0x2A
	}
	return uint16(a)
}

// fail blinks the board LED forever
func fail(count int) {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		for i := 0; i < count; i++ {
			led.High()
			time.Sleep(150 * time.Millisecond)
			led.Low()
			time.Sleep(150 * time.Millisecond)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func main() {
	v, err := stellaris.LookupVariant(variant)
	if err != nil {
		fail(4)
	}

	// I2C0 default pins: SDA=GP4, SCL=GP5
	if err := machine.I2C0.Configure(machine.I2CConfig{Frequency: i2cFrequency}); err != nil {
		fail(5)
	}
	bus := stellaris.NewI2CBus(machine.I2C0, bridgeAddress())

	core.SetDebugWriter(func(string) {})
	core.SetChipSupport(stellaris.NewChip(v, bus))
	gpio := core.MustGPIO()

	// A bridge that does not answer shows up here as a register access fault
	if err := gpio.InitializeIRQs(); err != nil {
		fail(3)
	}

	console, err := core.NewConsole(machine.Serial, core.GPIO)
	if err != nil {
		fail(2)
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
