package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"animahead/host/config"
	"animahead/host/link"
	"animahead/host/logging"
	"animahead/host/serial"
	"animahead/protocol"
)

var (
	configPath = flag.String("config", "", "Config file (default: ./head.yaml if present)")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (overrides config)")
	verbose    = flag.Bool("verbose", false, "Log every frame sent")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *baud > 0 {
		cfg.Serial.Baud = *baud
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	cfg.Logging.File.Filename = ""

	log, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	fmt.Printf("headctl %s - animatronic head uplink\n", protocol.Version)
	fmt.Println("=======================================")
	fmt.Println()

	port, err := serial.Open(&cfg.Serial)
	if err != nil {
		log.Fatal("failed to open link", zap.String("device", cfg.Serial.Device), zap.Error(err))
	}
	defer port.Close()

	up := link.NewUplink(port, cfg.Uplink.RateHz, cfg.Uplink.Burst, link.WithLogger(log))
	defer up.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sh := &shell{up: up, out: os.Stdout}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		err := sh.exec(ctx, line)
		if errors.Is(err, errQuit) {
			fmt.Println("Goodbye!")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error("reading input", zap.Error(err))
	}
}
