package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "output: {}\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Output.Dest != "255.255.255.255:4000" {
		t.Fatalf("dest default: %q", cfg.Output.Dest)
	}
	if cfg.FLARM.Baud != 38400 {
		t.Fatalf("baud default: %d", cfg.FLARM.Baud)
	}
	if cfg.Emitter.Tick != 20*time.Millisecond {
		t.Fatalf("tick default: %v", cfg.Emitter.Tick)
	}
	if cfg.Emitter.StaleAfter != 60*time.Second {
		t.Fatalf("stale default: %v", cfg.Emitter.StaleAfter)
	}
	if cfg.Emitter.ChannelCapacity != 1000 {
		t.Fatalf("channel capacity default: %d", cfg.Emitter.ChannelCapacity)
	}
	if cfg.Ownship.ICAO != "000000" {
		t.Fatalf("icao default: %q", cfg.Ownship.ICAO)
	}
}

func TestLoad_ADSBDefaultAddr(t *testing.T) {
	cfg, err := Load(writeConfig(t, "adsb:\n  enable: true\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ADSB.Addr != "127.0.0.1:30002" {
		t.Fatalf("adsb addr default: %q", cfg.ADSB.Addr)
	}
	if cfg.ADSB.ReconnectDelay != 10*time.Second {
		t.Fatalf("reconnect delay default: %v", cfg.ADSB.ReconnectDelay)
	}
}

func TestLoad_FLARMRequiresDevice(t *testing.T) {
	if _, err := Load(writeConfig(t, "flarm:\n  enable: true\n")); err == nil {
		t.Fatal("expected error for enabled flarm without device")
	}
}

func TestLoad_BadICAORejected(t *testing.T) {
	if _, err := Load(writeConfig(t, "ownship:\n  icao: \"12\"\n")); err == nil {
		t.Fatal("expected error for short icao")
	}
	if _, err := Load(writeConfig(t, "ownship:\n  icao: \"ZZZZZZ\"\n")); err == nil {
		t.Fatal("expected error for non-hex icao")
	}
}

func TestLoad_SimInheritsOverrideCenter(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
ownship:
  override:
    enable: true
    lat_deg: -27.4698
    lon_deg: 153.0251
    alt_press_ft: 1000
    gps_valid: true
sim:
  enable: true
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sim.CenterLatDeg != -27.4698 || cfg.Sim.CenterLonDeg != 153.0251 {
		t.Fatalf("sim center not inherited: %+v", cfg.Sim)
	}
	if cfg.Sim.Count != 4 || cfg.Sim.RadiusNm != 5.0 {
		t.Fatalf("sim defaults: %+v", cfg.Sim)
	}
}

func TestLoad_SimWithoutCenterRejected(t *testing.T) {
	if _, err := Load(writeConfig(t, "sim:\n  enable: true\n")); err == nil {
		t.Fatal("expected error for sim without a center")
	}
}
