// Package main implements the evdevcat CLI: it opens every
// /dev/input/eventN device, builds a fallback-dispatcher
// [kernel.Device] for each one the core pipeline can handle, and
// prints every notification to stdout as it is produced. It is the
// debugging tool a compositor author reaches for first, modeled on
// libinput's "debug-events".
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/wlinput/evdev"
	"github.com/wlinput/evdev/kernel"
	"github.com/wlinput/evdev/linux/input"
	"github.com/wlinput/evdev/linux/rules"
	"golang.org/x/sys/unix"
)

func exitIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "evdevcat:", err)
		os.Exit(1)
	}
}

// managed pairs a built kernel.Device with the input.Device its source
// wraps, so the poll loop can read the raw file descriptor without
// kernel needing to know about one.
type managed struct {
	kdev *kernel.Device
	idev *input.Device
}

func main() {
	var (
		seat     *evdev.Seat
		notifier stdoutNotifier
		db       *rules.Database
		managedv []managed
		err      error
	)

	seat = evdev.NewSeat()

	db, err = rules.Load()
	exitIf(err)

	managedv = buildDevices(seat, notifier, db)

	printCapabilities(managedv)

	runLoop(managedv)
}

// buildDevices constructs a kernel.Device for every discovered
// input.Device the core pipeline can handle, skipping (with a
// diagnostic) any it cannot.
func buildDevices(seat *evdev.Seat, notifier evdev.Notifier, db *rules.Database) []managed {
	var (
		result []managed
		idev   *input.Device
		err    error
	)

	result = make([]managed, 0, len(devices))

	for _, idev = range devices {
		var (
			descriptor *evdev.Device
			kdev       *kernel.Device
			opts       kernel.Options
			name       string
			bus, vendor, product, _ uint16
			rule       rules.Rule
			ok         bool
		)

		name, err = idev.Name()
		if err != nil {
			fmt.Fprintf(os.Stderr, "evdevcat: %s: %s\n", idev.Path(), err)

			continue
		}

		bus, vendor, product, _, err = idev.RawID()
		if err != nil {
			fmt.Fprintf(os.Stderr, "evdevcat: %s: %s\n", idev.Path(), err)

			continue
		}

		rule, ok = db.Lookup(bus, vendor, product)
		if ok && rule.HasCalibration {
			opts.DefaultMatrix = &rule.Calibration
		}

		descriptor = &evdev.Device{Name: name, Path: idev.Path()}

		kdev, err = kernel.NewDevice(descriptor, idev, seat, notifier, opts)
		if errors.Is(err, evdev.ErrUnhandledDevice) {
			fmt.Fprintf(os.Stderr, "evdevcat: %s: unhandled device, skipping\n", idev.Path())

			continue
		}

		if errors.Is(err, evdev.ErrTouchpadUnsupported) {
			fmt.Fprintf(os.Stderr, "evdevcat: %s: touchpad dispatcher not implemented, skipping\n", idev.Path())

			continue
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "evdevcat: %s: %s\n", idev.Path(), err)

			continue
		}

		if ok {
			kdev.SetLEDs(kernel.LEDSet(rule.DefaultLEDs))
		}

		result = append(result, managed{kdev: kdev, idev: idev})
	}

	return result
}

// printCapabilities renders a startup summary table of every device
// this process will dispatch events for.
func printCapabilities(managedv []managed) {
	var (
		table *tablewriter.Table
		m     managed
	)

	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Path", "Name", "Capabilities"})

	for _, m = range managedv {
		var descriptor = m.kdev.Descriptor()

		table.Append([]string{descriptor.Path, descriptor.Name, descriptor.Capabilities.String()})
	}

	table.Render()
}

// runLoop polls every managed device's file descriptor and dispatches
// events as they arrive, until interrupted.
func runLoop(managedv []managed) {
	var (
		pollfds []unix.PollFd
		n       int
		i       int
		err     error
	)

	pollfds = make([]unix.PollFd, len(managedv))

	for i = range managedv {
		pollfds[i] = unix.PollFd{Fd: int32(managedv[i].idev.Fd()), Events: unix.POLLIN}
	}

	for {
		n, err = unix.Poll(pollfds, -1)
		if err == unix.EINTR {
			continue
		}

		exitIf(err)

		if n == 0 {
			continue
		}

		for i = range pollfds {
			if pollfds[i].Revents&unix.POLLIN == 0 {
				continue
			}

			err = managedv[i].kdev.Dispatch()
			if err != nil {
				fmt.Fprintf(os.Stderr, "evdevcat: %s: %s\n", managedv[i].idev.Path(), err)
			}
		}
	}
}

// stdoutNotifier prints every notification it receives to stdout.
type stdoutNotifier struct{}

// Notify implements [evdev.Notifier].
func (stdoutNotifier) Notify(n evdev.Notification) {
	switch e := n.(type) {
	case evdev.PointerMotion:
		fmt.Printf("%s pointer-motion dx=%.2f dy=%.2f\n", e.Device.Path, e.DX, e.DY)
	case evdev.PointerMotionAbsolute:
		fmt.Printf("%s pointer-motion-absolute x=%.2f y=%.2f\n", e.Device.Path, e.X, e.Y)
	case evdev.PointerButton:
		fmt.Printf("%s pointer-button code=%d state=%v\n", e.Device.Path, e.Code, e.State)
	case evdev.PointerAxis:
		fmt.Printf("%s pointer-axis axis=%v value=%.2f\n", e.Device.Path, e.Axis, e.Value)
	case evdev.KeyboardKey:
		fmt.Printf("%s keyboard-key code=%d state=%v\n", e.Device.Path, e.Code, e.State)
	case evdev.TouchDown:
		fmt.Printf("%s touch-down slot=%d seat-slot=%d x=%.2f y=%.2f\n", e.Device.Path, e.Slot, e.SeatSlot, e.X, e.Y)
	case evdev.TouchMotion:
		fmt.Printf("%s touch-motion slot=%d seat-slot=%d x=%.2f y=%.2f\n", e.Device.Path, e.Slot, e.SeatSlot, e.X, e.Y)
	case evdev.TouchUp:
		fmt.Printf("%s touch-up slot=%d seat-slot=%d\n", e.Device.Path, e.Slot, e.SeatSlot)
	case evdev.TouchFrame:
		fmt.Printf("%s touch-frame\n", e.Device.Path)
	}
}
