//go:build linux

// Package rules implements a device-property database keyed by device
// identity (bus/vendor/product) supplying default calibration
// matrices and LED policy hints at device-build time, in place of the
// udev hwdb a real compositor would consult. It is loaded from a
// single YAML file in the [XDG Base Directory Specification] config
// directory via [github.com/wlinput/evdev/xdg].
//
// [XDG Base Directory Specification]: https://specifications.freedesktop.org/basedir-spec/latest
package rules

import (
	"fmt"
	"io"

	"github.com/wlinput/evdev/xdg"
	"gopkg.in/yaml.v3"
)

// configRelPath is where [Load] looks for the rules file, relative to
// the XDG config home.
const configRelPath = "evdev/rules.yaml"

// Identity is the (bus, vendor, product) triple a [Device] reports via
// EVIOCGID, used to key rule lookups. Version is deliberately excluded:
// rules apply across firmware revisions of the same device.
type Identity struct {
	Bus, Vendor, Product uint16
}

// Rule is the set of defaults a matching device should be constructed
// with.
type Rule struct {
	// Calibration is the default calibration matrix, in the same
	// row-major six-float encoding as [kernel.Matrix.ToFloats], valid
	// only if HasCalibration.
	Calibration [6]float64

	// HasCalibration reports whether Calibration was set by this rule,
	// distinguishing "default to identity" from "no opinion".
	HasCalibration bool

	// DefaultLEDs is a bitmask using the same bit layout as
	// [github.com/wlinput/evdev/kernel.LEDSet] (1=NumLock, 2=CapsLock,
	// 4=ScrollLock), applied once at device-build time.
	DefaultLEDs uint8
}

// Database is a loaded rules file, indexed for lookup by device
// identity.
type Database struct {
	rules map[Identity]Rule
}

// ruleFile mirrors the on-disk YAML shape: a flat list of entries, each
// naming the device identity it applies to.
type ruleFile struct {
	Bus         uint16   `yaml:"bus"`
	Vendor      uint16   `yaml:"vendor"`
	Product     uint16   `yaml:"product"`
	Calibration *[6]float64 `yaml:"calibration,omitempty"`
	DefaultLEDs uint8    `yaml:"default_leds,omitempty"`
}

// Load reads and parses the rules file from the XDG config directory,
// creating an empty one if none exists yet. A missing or empty file is
// not an error — it yields a Database with no rules, meaning identity
// calibration and no LED policy for every device, not failure.
func Load() (*Database, error) {
	var (
		file     io.ReadCloser
		content  []byte
		entries  []ruleFile
		db       *Database
		entry    ruleFile
		err      error
	)

	file, err = xdg.ConfigFile(configRelPath)
	if err != nil {
		return nil, fmt.Errorf("rules.Load: %w", err)
	}
	defer file.Close()

	content, err = io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("rules.Load: %w", err)
	}

	if len(content) > 0 {
		err = yaml.Unmarshal(content, &entries)
		if err != nil {
			return nil, fmt.Errorf("rules.Load: %w", err)
		}
	}

	db = &Database{rules: make(map[Identity]Rule, len(entries))}

	for _, entry = range entries {
		var rule Rule

		if entry.Calibration != nil {
			rule.Calibration = *entry.Calibration
			rule.HasCalibration = true
		}

		rule.DefaultLEDs = entry.DefaultLEDs

		db.rules[Identity{Bus: entry.Bus, Vendor: entry.Vendor, Product: entry.Product}] = rule
	}

	return db, nil
}

// Lookup returns the rule matching the given device identity, if any.
func (db *Database) Lookup(bus, vendor, product uint16) (Rule, bool) {
	var (
		rule Rule
		ok   bool
	)

	rule, ok = db.rules[Identity{Bus: bus, Vendor: vendor, Product: product}]

	return rule, ok
}
