//go:build rp2040

package main

import (
	"animahead/core"
	"animahead/protocol"
	"animahead/targets/pio"
	"machine"
	"time"
)

// Board wiring
const (
	pinNeckRxServo = machine.GPIO8 // PWM4 A
	pinChinServo   = machine.GPIO9 // PWM4 B
	pinNeckRyIN1   = machine.GPIO10
	pinNeckRyIN2   = machine.GPIO11
	pinNeckRzIN1   = machine.GPIO12
	pinNeckRzIN2   = machine.GPIO13
	pinNeckRyEncA  = machine.GPIO2 // B on GPIO3
	pinNeckRzEncA  = machine.GPIO6 // B on GPIO7
	pinXBeeTX      = machine.GPIO0
	pinXBeeRX      = machine.GPIO1

	xbeeBaud = 230400
)

var (
	head *core.Head

	// Debug counters
	bytesReceived uint32
	panics        uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitDebug(false)

	drivers, err := initDrivers()
	if err != nil {
		haltWithError("driver init", err)
	}

	head, err = core.NewHead(core.DefaultConfig(), drivers)
	if err != nil {
		haltWithError("head init", err)
	}

	uart := machine.UART0
	if err := uart.Configure(machine.UARTConfig{BaudRate: xbeeBaud, TX: pinXBeeTX, RX: pinXBeeRX}); err != nil {
		haltWithError("xbee init", err)
	}

	// Start the receive context
	go linkReaderLoop(uart)

	UpdateSystemTime()
	head.StartTimer(core.GetTime())

	// Control loop - runs forever
	for {
		// Recover from panics in the control loop to keep the head moving
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics++
					core.DumpEventRing()
				}
			}()

			UpdateSystemTime()
			core.ProcessTimers()
			heartbeat()
		}()

		// Yield to the reader goroutine
		time.Sleep(10 * time.Microsecond)
	}
}

// linkReaderLoop feeds XBee bytes to the frame decoder
func linkReaderLoop(uart *machine.UART) {
	// Recover from panics to keep the link alive
	defer func() {
		if r := recover(); r != nil {
			panics++
			time.Sleep(100 * time.Millisecond)
			go linkReaderLoop(uart)
		}
	}()

	decoder := head.Decoder()
	var buf [64]byte
	input := protocol.NewSliceInputBuffer(nil)
	for {
		for uart.Buffered() > 0 {
			n, err := uart.Read(buf[:])
			if err != nil || n == 0 {
				break
			}
			input.Reset(buf[:n])
			decoder.Receive(input)
			bytesReceived += uint32(n)
		}
		// Yield to avoid a busy loop
		time.Sleep(100 * time.Microsecond)
	}
}

// initDrivers configures every actuator and sensor of the head
func initDrivers() (core.Drivers, error) {
	var d core.Drivers

	neckRx, err := newServoOutput(pinNeckRxServo)
	if err != nil {
		return d, err
	}
	chin, err := newServoOutput(pinChinServo)
	if err != nil {
		return d, err
	}

	neckRy, err := newMotorOutput(pinNeckRyIN1, pinNeckRyIN2)
	if err != nil {
		return d, err
	}
	neckRz, err := newMotorOutput(pinNeckRzIN1, pinNeckRzIN2)
	if err != nil {
		return d, err
	}

	encRy := pio.NewQuadratureEncoder(0, 0)
	if err := encRy.Init(pinNeckRyEncA); err != nil {
		return d, err
	}
	encRz := pio.NewQuadratureEncoder(0, 1)
	if err := encRz.Init(pinNeckRzEncA); err != nil {
		return d, err
	}

	status, err := newSPIStatusBus()
	if err != nil {
		return d, err
	}

	d = core.Drivers{
		NeckRx:        neckRx,
		Chin:          chin,
		NeckRy:        neckRy,
		NeckRyEncoder: encRy,
		NeckRz:        neckRz,
		NeckRzEncoder: encRz,
		Status:        status,
	}
	return d, d.Validate()
}

// haltWithError reports a fatal init error on the console forever
func haltWithError(stage string, err error) {
	core.SetDebugEnabled(true)
	for {
		core.DebugPrintln("[FATAL] " + stage + ": " + err.Error())
		time.Sleep(time.Second)
	}
}
