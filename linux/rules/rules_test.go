//go:build linux

package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyConfigIsNotAnError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var (
		db  *Database
		err error
	)

	db, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var _, ok = db.Lookup(0x3, 0x046d, 0xc52b)
	if ok {
		t.Error("Lookup matched against an empty database")
	}
}

func TestLoadAndLookup(t *testing.T) {
	var home = t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", home)

	var (
		path = filepath.Join(home, "evdev", "rules.yaml")
		err  error
	)

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	var contents = `
- bus: 3
  vendor: 0x046d
  product: 0xc52b
  calibration: [1, 0, 0, 0, 1, 0]
  default_leds: 2
`

	err = os.WriteFile(path, []byte(contents), 0o600)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var db *Database

	db, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var rule, ok = db.Lookup(3, 0x046d, 0xc52b)
	if !ok {
		t.Fatal("Lookup did not find the configured device identity")
	}

	if !rule.HasCalibration {
		t.Error("rule.HasCalibration = false, want true")
	}

	if rule.Calibration != [6]float64{1, 0, 0, 0, 1, 0} {
		t.Errorf("rule.Calibration = %v, want identity", rule.Calibration)
	}

	if rule.DefaultLEDs != 2 {
		t.Errorf("rule.DefaultLEDs = %d, want 2", rule.DefaultLEDs)
	}

	_, ok = db.Lookup(3, 0x046d, 0xffff)
	if ok {
		t.Error("Lookup matched an unconfigured product id")
	}
}
