//go:build rp2040

package main

import (
	"animahead/core"
	"animahead/protocol"
	"machine"
	"strconv"
)

const heartbeatPeriodUS = 5 * 1000 * 1000

var lastHeartbeat uint64

// InitDebug routes core debug output to the USB console
func InitDebug(enabled bool) {
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(enabled)
}

// heartbeat prints link and loop counters every few seconds while debug
// output is enabled
func heartbeat() {
	if !core.IsDebugEnabled() {
		return
	}
	now := GetHardwareUptime()
	if now-lastHeartbeat < heartbeatPeriodUS {
		return
	}
	lastHeartbeat = now

	stats := head.Decoder().Stats()
	core.DebugPrintln("[HB] v" + protocol.Version + " up=" + strconv.FormatUint(now/1000, 10) + "ms" +
		" bytes=" + strconv.FormatUint(uint64(bytesReceived), 10) +
		" frames=" + strconv.FormatUint(uint64(stats.Frames), 10) +
		" rejected=" + strconv.FormatUint(uint64(stats.Rejected), 10) +
		" cycles=" + strconv.FormatUint(uint64(head.Cycles()), 10) +
		" panics=" + strconv.FormatUint(uint64(panics), 10))
}
