//go:build rp2040

package pio

// PIO quadrature encoder backend using tinygo-org/pio package
// The state machine samples A/B and pushes a word whenever they change;
// the CPU applies the transition table when the count is read.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// PIO instruction encodings not covered by the assembler
const (
	pioIn   = 0x4000
	pioPush = 0x8000
	pioMov  = 0xa000

	inSrcPins   = 0x00
	movDestX    = 0x20
	movDestY    = 0x40
	movDestISR  = 0xc0
	movSrcX     = 0x01
	movSrcNull  = 0x03
	movSrcISR   = 0x06
	pushNoBlock = 0x0000
)

const quadraturePIOOrigin = 0 // Jump targets below are absolute

// buildQuadratureProgram creates the edge-detect program.
// Y holds the last pushed pin state.
func buildQuadratureProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		pioMov | movDestISR | movSrcNull,          // 0: mov isr, null
		pioIn | inSrcPins | 2,                     // 1: in pins, 2
		pioMov | movDestX | movSrcISR,             // 2: mov x, isr
		asm.Jmp(5, rp2pio.JmpXNotEqualY).Encode(), // 3: jmp x!=y, 5
		asm.Jmp(0, rp2pio.JmpAlways).Encode(),     // 4: jmp 0
		pioMov | movDestY | movSrcX,               // 5: mov y, x
		pioPush | pushNoBlock,                     // 6: push noblock
		// .wrap
	}
}

// programs tracks which PIO blocks already hold the program
var programs = map[*rp2pio.PIO]uint8{}

// QuadratureEncoder counts a quadrature encoder on two consecutive pins
type QuadratureEncoder struct {
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	pinA    machine.Pin
	decoder QuadratureDecoder
}

// NewQuadratureEncoder creates an encoder on the given PIO block and state machine.
// pioNum: 0 for PIO0, 1 for PIO1
// smNum: 0-3 for state machine number
func NewQuadratureEncoder(pioNum, smNum uint8) *QuadratureEncoder {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}

	return &QuadratureEncoder{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

// Init starts counting on pinA and pinA+1 (B)
func (e *QuadratureEncoder) Init(pinA machine.Pin) error {
	e.pinA = pinA
	pinB := pinA + 1

	e.sm.TryClaim()

	offset, loaded := programs[e.pio]
	if !loaded {
		program := buildQuadratureProgram()
		var err error
		offset, err = e.pio.AddProgram(program, quadraturePIOOrigin)
		if err != nil {
			return err
		}
		programs[e.pio] = offset
	}

	pinA.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pinB.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetInPins(pinA)

	// Shift left so A lands in bit 0 and B in bit 1; no autopush
	cfg.SetInShift(false, false, 32)
	cfg.SetWrap(offset+6, offset)

	// Sample at 1 MHz, well above the encoder edge rate
	cfg.SetClkDivIntFrac(125, 0)

	e.sm.Init(offset, cfg)
	e.sm.SetPindirsConsecutive(pinA, 2, false)

	e.decoder.Reset(b2u(pinA.Get()) | b2u(pinB.Get())<<1)
	e.sm.SetEnabled(true)
	return nil
}

// Count drains the state machine FIFO and returns the position.
// It implements core.Counter and must only be called from the control loop.
func (e *QuadratureEncoder) Count() int32 {
	for !e.sm.IsRxFIFOEmpty() {
		e.decoder.Update(uint8(e.sm.RxGet()))
	}
	return e.decoder.Count()
}

// Missed returns transitions lost because the pins moved two states
// between samples
func (e *QuadratureEncoder) Missed() uint32 {
	return e.decoder.Missed()
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
