// Package config loads and validates the YAML configuration file.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Output  OutputConfig  `yaml:"output"`
	ADSB    ADSBConfig    `yaml:"adsb"`
	FLARM   FLARMConfig   `yaml:"flarm"`
	Ownship OwnshipConfig `yaml:"ownship"`
	Sim     SimConfig     `yaml:"sim"`
	Emitter EmitterConfig `yaml:"emitter"`
	LED     LEDConfig     `yaml:"led"`
}

type OutputConfig struct {
	// Dest is the UDP destination, typically a broadcast address.
	Dest string `yaml:"dest"`
	// Record, when set, is a path the emitter writes every sent frame to.
	Record string `yaml:"record"`
}

type ADSBConfig struct {
	Enable bool `yaml:"enable"`
	// Addr is the TCP endpoint of the external Mode-S decoding facility's
	// decoded-JSON feed.
	Addr           string        `yaml:"addr"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type FLARMConfig struct {
	Enable         bool          `yaml:"enable"`
	Device         string        `yaml:"device"`
	Baud           int           `yaml:"baud"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type OwnshipConfig struct {
	// ICAO is the ownship 24-bit address as 6 hex chars; "000000" means no
	// real address.
	ICAO     string `yaml:"icao"`
	Callsign string `yaml:"callsign"`

	Override OwnshipOverride `yaml:"override"`
}

// OwnshipOverride pins ownship to a static location, taking precedence over
// proximity-feed GPS sentences for every ownship field.
type OwnshipOverride struct {
	Enable     bool    `yaml:"enable"`
	LatDeg     float64 `yaml:"lat_deg"`
	LonDeg     float64 `yaml:"lon_deg"`
	AltPressFt int     `yaml:"alt_press_ft"`
	AltGeoFt   int     `yaml:"alt_geo_ft"`
	GroundKt   int     `yaml:"ground_kt"`
	TrackDeg   float64 `yaml:"track_deg"`
	VvelFpm    int     `yaml:"vvel_fpm"`
	GPSValid   bool    `yaml:"gps_valid"`
}

type SimConfig struct {
	Enable   bool          `yaml:"enable"`
	Count    int           `yaml:"count"`
	RadiusNm float64       `yaml:"radius_nm"`
	Period   time.Duration `yaml:"period"`
	GroundKt int           `yaml:"ground_kt"`
	AltFeet  int           `yaml:"alt_feet"`
	// CenterLatDeg/CenterLonDeg default to the ownship override location.
	CenterLatDeg float64 `yaml:"center_lat_deg"`
	CenterLonDeg float64 `yaml:"center_lon_deg"`
	// UpdateInterval is how often each target's position is re-emitted.
	UpdateInterval time.Duration `yaml:"update_interval"`
}

type EmitterConfig struct {
	Tick               time.Duration `yaml:"tick"`
	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval"`
	OwnshipInterval    time.Duration `yaml:"ownship_interval"`
	GeoAltInterval     time.Duration `yaml:"geo_alt_interval"`
	TrafficMinInterval time.Duration `yaml:"traffic_min_interval"`
	StaleAfter         time.Duration `yaml:"stale_after"`
	ChannelCapacity    int           `yaml:"channel_capacity"`
}

type LEDConfig struct {
	Enable bool   `yaml:"enable"`
	Chip   string `yaml:"chip"`
	Line   int    `yaml:"line"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultAndValidate fills defaults matching the historical CLI defaults and
// rejects inconsistent settings.
func DefaultAndValidate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if strings.TrimSpace(cfg.Output.Dest) == "" {
		cfg.Output.Dest = "255.255.255.255:4000"
	}

	if cfg.ADSB.Enable && strings.TrimSpace(cfg.ADSB.Addr) == "" {
		cfg.ADSB.Addr = "127.0.0.1:30002"
	}
	if cfg.ADSB.ReconnectDelay <= 0 {
		cfg.ADSB.ReconnectDelay = 10 * time.Second
	}

	if cfg.FLARM.Enable && strings.TrimSpace(cfg.FLARM.Device) == "" {
		return fmt.Errorf("flarm.device is required when flarm.enable is true")
	}
	if cfg.FLARM.Baud <= 0 {
		cfg.FLARM.Baud = 38400
	}
	if cfg.FLARM.ReconnectDelay <= 0 {
		cfg.FLARM.ReconnectDelay = 10 * time.Second
	}

	if cfg.Ownship.ICAO == "" {
		cfg.Ownship.ICAO = "000000"
	}
	icao := strings.TrimPrefix(strings.ToLower(cfg.Ownship.ICAO), "0x")
	if len(icao) != 6 {
		return fmt.Errorf("ownship.icao must be 6 hex chars")
	}
	if _, err := hex.DecodeString(icao); err != nil {
		return fmt.Errorf("ownship.icao must be 6 hex chars")
	}

	if cfg.Sim.Enable {
		if cfg.Sim.Count <= 0 {
			cfg.Sim.Count = 4
		}
		if cfg.Sim.RadiusNm <= 0 {
			cfg.Sim.RadiusNm = 5.0
		}
		if cfg.Sim.Period <= 0 {
			cfg.Sim.Period = 90 * time.Second
		}
		if cfg.Sim.GroundKt <= 0 {
			cfg.Sim.GroundKt = 120
		}
		if cfg.Sim.AltFeet == 0 {
			cfg.Sim.AltFeet = 4500
		}
		if cfg.Sim.UpdateInterval <= 0 {
			cfg.Sim.UpdateInterval = 1 * time.Second
		}
		if cfg.Sim.CenterLatDeg == 0 && cfg.Sim.CenterLonDeg == 0 {
			if !cfg.Ownship.Override.Enable {
				return fmt.Errorf("sim.center_lat_deg/center_lon_deg or ownship.override required when sim.enable is true")
			}
			cfg.Sim.CenterLatDeg = cfg.Ownship.Override.LatDeg
			cfg.Sim.CenterLonDeg = cfg.Ownship.Override.LonDeg
		}
	}

	if cfg.Emitter.Tick <= 0 {
		cfg.Emitter.Tick = 20 * time.Millisecond
	}
	if cfg.Emitter.HeartbeatInterval <= 0 {
		cfg.Emitter.HeartbeatInterval = 1 * time.Second
	}
	if cfg.Emitter.OwnshipInterval <= 0 {
		cfg.Emitter.OwnshipInterval = 1 * time.Second
	}
	if cfg.Emitter.GeoAltInterval <= 0 {
		cfg.Emitter.GeoAltInterval = 1 * time.Second
	}
	if cfg.Emitter.TrafficMinInterval <= 0 {
		cfg.Emitter.TrafficMinInterval = 500 * time.Millisecond
	}
	if cfg.Emitter.StaleAfter <= 0 {
		cfg.Emitter.StaleAfter = 60 * time.Second
	}
	if cfg.Emitter.ChannelCapacity <= 0 {
		cfg.Emitter.ChannelCapacity = 1000
	}

	if cfg.LED.Enable && strings.TrimSpace(cfg.LED.Chip) == "" {
		cfg.LED.Chip = "gpiochip0"
	}

	return nil
}
