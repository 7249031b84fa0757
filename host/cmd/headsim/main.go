package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"animahead/host/config"
	"animahead/host/link"
	"animahead/host/logging"
	"animahead/host/metrics"
	"animahead/host/serial"
	"animahead/host/sim"
	"animahead/protocol"
)

var (
	configPath  = flag.String("config", "", "Config file (default: ./head.yaml if present)")
	device      = flag.String("device", "", "Serial device the head link arrives on (overrides config)")
	loopback    = flag.Bool("loopback", false, "Drive the simulator from an in-process uplink sweep")
	printConfig = flag.Bool("print-config", false, "Print the effective configuration as YAML and exit")
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

	if *printConfig {
		if err := writeConfig(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("simulator failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	reg := metrics.NewRegistry()
	hm := metrics.NewHeadMetrics(reg)

	var port io.ReadCloser
	if *loopback {
		hostEnd, headEnd := serial.Loopback()
		defer hostEnd.Close()
		port = headEnd

		up := link.NewUplink(hostEnd, cfg.Uplink.RateHz, cfg.Uplink.Burst,
			link.WithLogger(log.Named("uplink")),
			link.WithSendHook(func(protocol.Command) { hm.UplinkSent.Inc() }))
		go sweep(ctx, up, log)
	} else {
		p, err := serial.Open(&cfg.Serial)
		if err != nil {
			return err
		}
		port = p
	}

	s, err := sim.New(port, sim.Options{
		Actuators:  cfg.Actuators,
		Plant:      sim.DefaultPlantConfig(),
		StatusPoll: cfg.StatusPoll,
		Metrics:    hm,
		Logger:     log.Named("sim"),
	})
	if err != nil {
		port.Close()
		return err
	}

	if cfg.Metrics.Enable {
		srv := &http.Server{Addr: cfg.Metrics.Addr, ReadHeaderTimeout: 5 * time.Second}
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler(reg))
		srv.Handler = mux

		go func() {
			log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr), zap.String("path", cfg.Metrics.Path))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", zap.Error(err))
			}
		}()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	return s.Run(ctx)
}

// sweep streams a slow sine around the centre pose, locking the encoders
// for a second between passes
func sweep(ctx context.Context, up *link.Uplink, log *zap.Logger) {
	center := link.Pose{Chin: 100, NeckRy: 0, NeckRx: 0x80, NeckRz: 0x80}
	for ctx.Err() == nil {
		if _, err := up.Stream(ctx, 5*time.Second, link.Sweep(center, 60, 100)); err != nil {
			log.Warn("sweep stopped", zap.Error(err))
			return
		}
		if err := up.Lock(ctx); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
		if err := up.Unlock(ctx); err != nil {
			return
		}
	}
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
