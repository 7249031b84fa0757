package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"animahead/host/link"
	"animahead/protocol"
)

var errQuit = errors.New("quit")

// shell runs operator command lines against an uplink
type shell struct {
	up  *link.Uplink
	out io.Writer
}

// exec runs one command line. It returns errQuit for quit commands.
func (s *shell) exec(ctx context.Context, line string) error {
	parts, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command: %w", err)
	}
	if len(parts) == 0 {
		return nil
	}

	cmd, args := parts[0], parts[1:]
	switch cmd {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		printHelp(s.out)
		return nil

	case "pose":
		if len(args) != 4 {
			return fmt.Errorf("usage: pose <chin> <neckRy> <neckRx> <neckRz>")
		}
		vals, err := parseChannels(args)
		if err != nil {
			return err
		}
		p := link.Pose{Chin: vals[0], NeckRy: vals[1], NeckRx: vals[2], NeckRz: vals[3]}
		if err := s.up.SendPose(ctx, p); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "sent pose chin=%d neckRy=%d neckRx=%d neckRz=%d\n", p.Chin, p.NeckRy, p.NeckRx, p.NeckRz)
		return nil

	case "lock":
		if err := s.up.Lock(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "encoder lock set")
		return nil

	case "unlock":
		if err := s.up.Unlock(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "encoder lock cleared")
		return nil

	case "ext":
		if len(args) != 1 {
			return fmt.Errorf("usage: ext <byte>")
		}
		v, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			return fmt.Errorf("invalid extended byte %q: %w", args[0], err)
		}
		if err := s.up.SetExtended(ctx, uint8(v)); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "extended byte 0x%02X\n", v)
		return nil

	case "raw":
		if len(args) == 0 {
			return fmt.Errorf("usage: raw <hex bytes...>")
		}
		data, err := hex.DecodeString(strings.ReplaceAll(strings.Join(args, ""), " ", ""))
		if err != nil {
			return fmt.Errorf("invalid hex: %w", err)
		}
		if err := s.up.WriteRaw(data); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "wrote %d raw bytes\n", len(data))
		return nil

	case "stream":
		if len(args) != 2 {
			return fmt.Errorf("usage: stream <amplitude> <seconds>")
		}
		amp, err := strconv.ParseUint(args[0], 0, 7)
		if err != nil {
			return fmt.Errorf("invalid amplitude %q: %w", args[0], err)
		}
		secs, err := strconv.ParseFloat(args[1], 64)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid duration %q", args[1])
		}
		last := s.up.Last()
		center := link.Pose{Chin: last.Chin, NeckRy: last.NeckRy, NeckRx: last.NeckRx, NeckRz: last.NeckRz}
		sent, err := s.up.Stream(ctx, time.Duration(secs*float64(time.Second)), link.Sweep(center, uint8(amp), 50))
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "streamed %d frames\n", sent)
		return nil

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

func parseChannels(args []string) ([]uint8, error) {
	vals := make([]uint8, len(args))
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid channel value %q: %w", a, err)
		}
		if v == 0xFF {
			return nil, fmt.Errorf("channel value %q is reserved for the frame marker", a)
		}
		vals[i] = uint8(v)
	}
	return vals, nil
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, "\nheadctl (link protocol %s)\n", protocol.Version)
	fmt.Fprintln(w, "Available commands:")
	fmt.Fprintln(w, "  pose <chin> <ry> <rx> <rz>  - Send a pose (0-254 per channel)")
	fmt.Fprintln(w, "  lock                        - Set the encoder lock bit")
	fmt.Fprintln(w, "  unlock                      - Clear the encoder lock bit")
	fmt.Fprintln(w, "  ext <byte>                  - Send the last pose with an extended byte")
	fmt.Fprintln(w, "  raw <hex...>                - Write raw bytes to the link")
	fmt.Fprintln(w, "  stream <amp> <seconds>      - Sweep around the last pose")
	fmt.Fprintln(w, "  help                        - Show this help message")
	fmt.Fprintln(w, "  quit/exit/q                 - Exit the program")
	fmt.Fprintln(w)
}
