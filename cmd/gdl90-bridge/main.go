package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gdl90-bridge/internal/adsb"
	"gdl90-bridge/internal/config"
	"gdl90-bridge/internal/emitter"
	"gdl90-bridge/internal/flarm"
	"gdl90-bridge/internal/gdl90"
	"gdl90-bridge/internal/sim"
	"gdl90-bridge/internal/statusled"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./dev.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("gdl90-bridge starting dest=%s", cfg.Output.Dest)

	em := emitter.New(emitterConfig(cfg))

	led := statusled.New(statusled.Config{
		Enable: cfg.LED.Enable,
		Chip:   cfg.LED.Chip,
		Line:   cfg.LED.Line,
	})
	if cfg.LED.Enable {
		// A missing LED is logged and ignored; broadcasting must not care.
		_ = led.Open()
		em.OnGPSValid = led.Set
	}
	defer led.Close()

	if err := em.Start(ctx); err != nil {
		log.Fatalf("emitter start failed: %v", err)
	}
	defer em.Close()

	if cfg.ADSB.Enable {
		client, err := adsb.NewClient(adsb.Config{
			Addr:           cfg.ADSB.Addr,
			ReconnectDelay: cfg.ADSB.ReconnectDelay,
		}, em.Push)
		if err != nil {
			log.Fatalf("adsb client init failed: %v", err)
		}
		if err := client.Start(ctx); err != nil {
			log.Fatalf("adsb client start failed: %v", err)
		}
		defer client.Close()
	}

	if cfg.FLARM.Enable {
		svc := flarm.New(flarm.Config{
			Device:         cfg.FLARM.Device,
			Baud:           cfg.FLARM.Baud,
			ReconnectDelay: cfg.FLARM.ReconnectDelay,
		}, em.Push)
		if err := svc.Start(ctx); err != nil {
			log.Fatalf("flarm start failed: %v", err)
		}
		defer svc.Close()
	}

	if cfg.Sim.Enable {
		worker := sim.New(sim.Config{
			Count:          cfg.Sim.Count,
			CenterLatDeg:   cfg.Sim.CenterLatDeg,
			CenterLonDeg:   cfg.Sim.CenterLonDeg,
			RadiusNm:       cfg.Sim.RadiusNm,
			Period:         cfg.Sim.Period,
			GroundKt:       cfg.Sim.GroundKt,
			AltFeet:        cfg.Sim.AltFeet,
			UpdateInterval: cfg.Sim.UpdateInterval,
		}, em.Push)
		if err := worker.Start(ctx); err != nil {
			log.Fatalf("sim start failed: %v", err)
		}
		defer worker.Close()
	}

	<-ctx.Done()
	log.Printf("gdl90-bridge stopping")

	// A second signal while the deferred Closes drain forces an exit.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
		case <-time.After(5 * time.Second):
		}
		log.Printf("gdl90-bridge shutdown forced")
		os.Exit(1)
	}()
}

func emitterConfig(cfg config.Config) emitter.Config {
	out := emitter.Config{
		Dest:               cfg.Output.Dest,
		Tick:               cfg.Emitter.Tick,
		HeartbeatInterval:  cfg.Emitter.HeartbeatInterval,
		OwnshipInterval:    cfg.Emitter.OwnshipInterval,
		GeoAltInterval:     cfg.Emitter.GeoAltInterval,
		TrafficMinInterval: cfg.Emitter.TrafficMinInterval,
		StaleAfter:         cfg.Emitter.StaleAfter,
		ChannelCapacity:    cfg.Emitter.ChannelCapacity,
		OwnshipCallsign:    cfg.Ownship.Callsign,
		RecordPath:         cfg.Output.Record,
	}

	// Config validation already vetted the hex address.
	if icao, err := gdl90.ParseICAOHex(cfg.Ownship.ICAO); err == nil {
		out.OwnshipICAO = icao
	}

	if ov := cfg.Ownship.Override; ov.Enable {
		out.Override = &emitter.Override{
			LatDeg:     ov.LatDeg,
			LonDeg:     ov.LonDeg,
			AltPressFt: ov.AltPressFt,
			AltGeoFt:   ov.AltGeoFt,
			GroundKt:   ov.GroundKt,
			TrackDeg:   ov.TrackDeg,
			VvelFpm:    ov.VvelFpm,
			GPSValid:   ov.GPSValid,
		}
	}
	return out
}
