//go:build linux

package input

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wlinput/evdev"
	"github.com/wlinput/evdev/linux/ioctl"
	"golang.org/x/sys/unix"
)

// Device represents an evdev input device.
// It wraps the opened /dev/input/eventN file, read non-blocking so
// [Device.ReadEvent] can be driven from a poll loop.
type Device struct {
	file *os.File
	fd   uintptr
	path string

	// sync holds the replay queue built by StartSync, drained by
	// NextSyncEvent.
	sync []evdev.RawEvent
}

var _ evdev.EventSource = (*Device)(nil)

// NewDevice opens the evdev device at the given path and returns a Device.
// The path is cleaned before opening, and the device file is opened
// in read-write, non-blocking mode so ReadEvent never stalls a poll
// loop waiting on other devices. The caller is responsible for closing
// the device when no longer needed.
func NewDevice(path string) (*Device, error) {
	var (
		device *Device
		file   *os.File
		err    error
	)

	file, err = os.OpenFile(filepath.Clean(path), os.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("input.NewDevice: %w", err)
	}

	device = &Device{
		file: file,
		fd:   file.Fd(),
		path: filepath.Clean(path),
	}

	return device, nil
}

// Path returns the filesystem path this Device was opened from.
func (dev *Device) Path() string {
	return dev.path
}

// Fd returns the underlying file descriptor, for callers that drive
// their own poll loop (e.g. via [golang.org/x/sys/unix.Poll]) rather
// than reading through this package.
func (dev *Device) Fd() uintptr {
	return dev.fd
}

// Devices scans /dev/input for event devices, opens each one, and
// returns a slice of Device pointers. If any device fails to open,
// an error is returned and no devices are returned.
func Devices() ([]*Device, error) {
	var (
		devices []*Device
		device  *Device
		paths   []string
		path    string
		err     error
	)

	paths, err = filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("input.Devices: %w", err)
	}

	devices = make([]*Device, 0, len(paths))
	for _, path = range paths {
		device, err = NewDevice(path)
		if err != nil {
			return nil, fmt.Errorf("input.Devices: %w", err)
		}

		devices = append(devices, device)
	}

	return devices, nil
}

// Name returns the human-readable name of the evdev device.
// It sends the [EVIOCGNAME] ioctl to read up to 256 bytes and
// converts the null-terminated result into a Go string.
func (dev *Device) Name() (string, error) {
	var (
		buf []byte
		err error
	)

	buf = make([]byte, 256)

	err = ioctl.Any(dev.fd, EVIOCGNAME(256), &buf[0])
	if err != nil {
		return "", fmt.Errorf("Device.Name: %w", err)
	}

	return unix.ByteSliceToString(buf), nil
}

// ID returns the platform-specific identifier for this evdev device.
// It issues the EVIOCGID ioctl to fetch the bus, vendor, product, and version fields.
// The result is formatted as:
// "bus 0x<bustype> vendor 0x<vendor> product 0x<product> version 0x<version>".
// e.g. "bus 0x3 vendor 0x46d product 0xc24f version 0x111".
func (dev *Device) ID() (string, error) {
	var (
		id  ID
		err error
	)

	err = ioctl.Any(dev.fd, EVIOCGID, &id)
	if err != nil {
		return "", fmt.Errorf("Device.ID: %w", err)
	}

	return fmt.Sprintf(
		"bus 0x%x vendor 0x%x product 0x%x version 0x%x",
		id.Bustype,
		id.Vendor,
		id.Product,
		id.Version,
	), nil
}

// RawID returns the device's raw bus/vendor/product/version quartet via
// the [EVIOCGID] ioctl, for callers (e.g. a rules database) that need
// the numeric identity rather than [Device.ID]'s formatted string.
func (dev *Device) RawID() (bus, vendor, product, version uint16, err error) {
	var id ID

	err = ioctl.Any(dev.fd, EVIOCGID, &id)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("Device.RawID: %w", err)
	}

	return id.Bustype, id.Vendor, id.Product, id.Version, nil
}

// Events returns a slice of every event type the device declares
// support for (EV_KEY, EV_REL, EV_ABS, ...), excluding EV_REP which
// every device accepts regardless of its bitmask.
func (dev *Device) Events() ([]uint16, error) {
	var (
		buf       []byte
		events    []uint16
		eventType uint16
		err       error
	)

	buf = make([]byte, (EV_MAX+7)/8)

	err = ioctl.Any(
		dev.fd,
		EVIOCGBIT(0, uint(len(buf))),
		&buf[0],
	)
	if err != nil {
		return nil, fmt.Errorf("Device.Events: %w", err)
	}

	events = make([]uint16, 0, EV_CNT)

	for eventType = range uint16(EV_CNT) {
		if !TestBit(buf, uint(eventType)) {
			continue
		}

		if eventType == EV_REP {
			continue
		}

		events = append(events, eventType)
	}

	return events, nil
}

// HasEventType reports whether the device declares any codes under
// evType, satisfying [evdev.EventSource].
func (dev *Device) HasEventType(evType uint16) (bool, error) {
	var (
		events []uint16
		t      uint16
		err    error
	)

	events, err = dev.Events()
	if err != nil {
		return false, fmt.Errorf("Device.HasEventType: %w", err)
	}

	for _, t = range events {
		if t == evType {
			return true, nil
		}
	}

	return false, nil
}

// Codes returns all codes declared supported under eventType.
func (dev *Device) Codes(eventType uint16) ([]uint16, error) {
	var (
		buf            []byte
		codes          []uint16
		maxCodes, code uint
		ok             bool
		err            error
	)

	maxCodes, ok = MaxCodes(eventType)
	if !ok {
		return nil, fmt.Errorf("Device.Codes: %w %d", ErrInvalidEventType, eventType)
	}

	buf = make([]byte, (maxCodes+7)/8)

	err = ioctl.Any(
		dev.fd,
		EVIOCGBIT(uint(eventType), uint(len(buf))),
		&buf[0],
	)
	if err != nil {
		return nil, fmt.Errorf("Device.Codes: %w", err)
	}

	codes = make([]uint16, 0, maxCodes+1)

	for code = range maxCodes + 1 {
		if !TestBit(buf, code) {
			continue
		}

		codes = append(codes, uint16(code))
	}

	return codes, nil
}

// EventCodes returns every code the device declares under evType,
// satisfying [evdev.EventSource].
func (dev *Device) EventCodes(evType uint16) ([]uint16, error) {
	var (
		codes []uint16
		err   error
	)

	codes, err = dev.Codes(evType)
	if err != nil {
		return nil, fmt.Errorf("Device.EventCodes: %w", err)
	}

	return codes, nil
}

// HasProperty reports an INPUT_PROP_* bit via the [EVIOCGPROP] ioctl,
// satisfying [evdev.EventSource].
func (dev *Device) HasProperty(prop uint16) (bool, error) {
	var (
		buf []byte
		err error
	)

	buf = make([]byte, (INPUT_PROP_CNT+7)/8)

	err = ioctl.Any(dev.fd, EVIOCGPROP(uint(len(buf))), &buf[0])
	if err != nil {
		return false, fmt.Errorf("Device.HasProperty: %w", err)
	}

	return TestBit(buf, uint(prop)), nil
}

// AbsInfo returns the axis parameters for code via the [EVIOCGABS]
// ioctl, satisfying [evdev.EventSource]. The bool return is false if
// the device does not declare code under EV_ABS.
func (dev *Device) AbsInfo(code uint16) (evdev.AbsInfo, bool, error) {
	var (
		codes []uint16
		c     uint16
		info  AbsInfo
		found bool
		err   error
	)

	codes, err = dev.Codes(EV_ABS)
	if err != nil {
		return evdev.AbsInfo{}, false, fmt.Errorf("Device.AbsInfo: %w", err)
	}

	for _, c = range codes {
		if c == code {
			found = true

			break
		}
	}

	if !found {
		return evdev.AbsInfo{}, false, nil
	}

	err = ioctl.Any(dev.fd, EVIOCGABS(uint(code)), &info)
	if err != nil {
		return evdev.AbsInfo{}, false, fmt.Errorf("Device.AbsInfo: %w", err)
	}

	return evdev.AbsInfo{
		Value:      info.Value,
		Minimum:    info.Minimum,
		Maximum:    info.Maximum,
		Fuzz:       info.Fuzz,
		Flat:       info.Flat,
		Resolution: info.Resolution,
	}, true, nil
}

// eventSize is the wire size of a struct input_event on a 64-bit
// kernel: two 8-byte timeval fields plus a 2+2+4 byte type/code/value
// triple, already 8-byte aligned.
const eventSize = 24

// ReadEvent reads one pending raw event without blocking, satisfying
// [evdev.EventSource]. It returns [evdev.ErrWouldBlock] once nothing
// more is queued, and retries a read interrupted by a signal (EINTR).
func (dev *Device) ReadEvent() (evdev.RawEvent, error) {
	var (
		buf []byte
		n   int
		err error
	)

	buf = make([]byte, eventSize)

	for {
		n, err = unix.Read(int(dev.fd), buf)
		if err != unix.EINTR {
			break
		}
	}

	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return evdev.RawEvent{}, evdev.ErrWouldBlock
	}

	if err != nil {
		return evdev.RawEvent{}, fmt.Errorf("Device.ReadEvent: %w", err)
	}

	if n < eventSize {
		return evdev.RawEvent{}, fmt.Errorf("Device.ReadEvent: short read of %d bytes", n)
	}

	return decodeRawEvent(buf), nil
}

// decodeRawEvent decodes a wire-format struct input_event read from
// buf into an [evdev.RawEvent].
func decodeRawEvent(buf []byte) evdev.RawEvent {
	return evdev.RawEvent{
		Sec:   binary.LittleEndian.Uint64(buf[0:8]),
		Usec:  binary.LittleEndian.Uint64(buf[8:16]),
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}
}

// encodeRawEvent encodes event into wire format.
func encodeRawEvent(event evdev.RawEvent) []byte {
	var buf = make([]byte, eventSize)

	binary.LittleEndian.PutUint64(buf[0:8], event.Sec)
	binary.LittleEndian.PutUint64(buf[8:16], event.Usec)
	binary.LittleEndian.PutUint16(buf[16:18], event.Type)
	binary.LittleEndian.PutUint16(buf[18:20], event.Code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(event.Value))

	return buf
}

// StartSync rebuilds the device's current state from EVIOCGKEY and
// EVIOCGABS and queues it as synthetic events, satisfying
// [evdev.EventSource]. The core pipeline drives this from its
// synchronization-recovery path after a SYN_DROPPED event.
func (dev *Device) StartSync() error {
	var (
		keyCodes, absCodes []uint16
		buf                []byte
		code               uint16
		info               evdev.AbsInfo
		ok                 bool
		err                error
	)

	dev.sync = dev.sync[:0]

	keyCodes, err = dev.Codes(EV_KEY)
	if err != nil {
		return fmt.Errorf("Device.StartSync: %w", err)
	}

	buf = make([]byte, (KEY_MAX+7)/8)

	err = ioctl.Any(dev.fd, EVIOCGKEY(uint(len(buf))), &buf[0])
	if err != nil {
		return fmt.Errorf("Device.StartSync: %w", err)
	}

	for _, code = range keyCodes {
		var value int32

		if TestBit(buf, uint(code)) {
			value = 1
		}

		dev.sync = append(dev.sync, evdev.RawEvent{
			Type:  EV_KEY,
			Code:  code,
			Value: value,
		})
	}

	absCodes, err = dev.Codes(EV_ABS)
	if err != nil {
		return fmt.Errorf("Device.StartSync: %w", err)
	}

	for _, code = range absCodes {
		info, ok, err = dev.AbsInfo(code)
		if err != nil {
			return fmt.Errorf("Device.StartSync: %w", err)
		}

		if !ok {
			continue
		}

		dev.sync = append(dev.sync, evdev.RawEvent{
			Type:  EV_ABS,
			Code:  code,
			Value: info.Value,
		})
	}

	dev.sync = append(dev.sync, evdev.RawEvent{Type: EV_SYN, Code: SYN_REPORT})

	return nil
}

// NextSyncEvent pops the next event queued by StartSync, satisfying
// [evdev.EventSource].
func (dev *Device) NextSyncEvent() (evdev.RawEvent, bool, error) {
	var event evdev.RawEvent

	if len(dev.sync) == 0 {
		return evdev.RawEvent{}, false, nil
	}

	event, dev.sync = dev.sync[0], dev.sync[1:]

	return event, len(dev.sync) > 0, nil
}

// WriteEvents writes raw events (e.g. LED state followed by a
// SYN_REPORT) to the device, satisfying [evdev.EventSource].
func (dev *Device) WriteEvents(events []evdev.RawEvent) error {
	var (
		event evdev.RawEvent
		err   error
	)

	for _, event = range events {
		_, err = unix.Write(int(dev.fd), encodeRawEvent(event))
		if err != nil {
			return fmt.Errorf("Device.WriteEvents: %w", err)
		}
	}

	return nil
}

// Grab locks or releases exclusive event delivery to this process via
// the [EVIOCGRAB] ioctl.
func (dev *Device) Grab(grab bool) error {
	var (
		value int32
		err   error
	)

	if grab {
		value = 1
	}

	err = ioctl.Any(dev.fd, EVIOCGRAB(), &value)
	if err != nil {
		return fmt.Errorf("Device.Grab: %w", err)
	}

	return nil
}

// Revoke permanently revokes this file descriptor's access to the
// device via the [EVIOCREVOKE] ioctl.
func (dev *Device) Revoke() error {
	var (
		value int32
		err   error
	)

	err = ioctl.Any(dev.fd, EVIOCREVOKE(), &value)
	if err != nil {
		return fmt.Errorf("Device.Revoke: %w", err)
	}

	return nil
}

// Close closes the evdev device by closing its underlying file handle.
func (dev *Device) Close() error {
	var err error

	err = dev.file.Close()
	if err != nil {
		return fmt.Errorf("Device.Close: %w", err)
	}

	return nil
}
