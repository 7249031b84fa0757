//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"
)

// SPI0 (PL022) register bits
const (
	sspcr0DSSMask = 0x0f
	sspcr0DSS16   = 0x0f // Data size select: 16 bit
	sspcr0SPH     = 1 << 7

	sspcr1SSE = 1 << 1 // Port enable
	sspcr1MS  = 1 << 2 // Slave mode

	sspsrTNF = 1 << 1 // Transmit FIFO not full
	sspsrRNE = 1 << 2 // Receive FIFO not empty
)

var errStatusTxFull = errors.New("spi status: transmit FIFO full")

// spiStatusBus is the 16-bit, mode 1 SPI slave the supervisor polls.
// It implements core.StatusBus.
type spiStatusBus struct {
	regs *rp.SPI0_Type
}

// newSPIStatusBus configures SPI0 as a slave on GPIO16 (RX), GPIO17 (CSn),
// GPIO18 (SCK) and GPIO19 (TX)
func newSPIStatusBus() (*spiStatusBus, error) {
	// Let the machine package release the block from reset and mux the pins
	err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 20000000,
		Mode:      1,
		SCK:       machine.GPIO18,
		SDO:       machine.GPIO19,
		SDI:       machine.GPIO16,
	})
	if err != nil {
		return nil, err
	}
	machine.GPIO17.Configure(machine.PinConfig{Mode: machine.PinSPI})

	regs := rp.SPI0
	regs.SSPCR1.ClearBits(sspcr1SSE)
	regs.SSPCR0.ReplaceBits(sspcr0DSS16|sspcr0SPH, sspcr0DSSMask|sspcr0SPH, 0)
	regs.SSPCR1.SetBits(sspcr1MS)
	regs.SSPCR1.SetBits(sspcr1SSE)

	return &spiStatusBus{regs: regs}, nil
}

// Receive returns a word clocked in by the supervisor, if any
func (b *spiStatusBus) Receive() (uint16, bool) {
	if !b.regs.SSPSR.HasBits(sspsrRNE) {
		return 0, false
	}
	return uint16(b.regs.SSPDR.Get()), true
}

// Reply queues a word for the supervisor's next transfer
func (b *spiStatusBus) Reply(word uint16) error {
	if !b.regs.SSPSR.HasBits(sspsrTNF) {
		return errStatusTxFull
	}
	b.regs.SSPDR.Set(uint32(word))
	return nil
}
