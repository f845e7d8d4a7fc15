package kernel

import "errors"

var (
	// errNoGrabSupport is returned by [Device.Grab] when the event
	// source does not implement exclusive-grab support.
	errNoGrabSupport = errors.New("kernel: event source does not support grabbing")

	// errNoRevokeSupport is returned by [Device.Revoke] when the event
	// source does not implement revocation.
	errNoRevokeSupport = errors.New("kernel: event source does not support revocation")

	// errNoAbsAxes is returned by [Device.SizeMM] when the device has
	// no absolute X/Y axes to derive a physical size from.
	errNoAbsAxes = errors.New("kernel: device has no absolute axes")

	// errFakeResolution is returned by [Device.SizeMM] when the
	// kernel-reported resolution was synthesized rather than real.
	errFakeResolution = errors.New("kernel: device resolution was synthesized, physical size unknown")

	// errNoIDSupport is returned by [Device.ID] when the event source
	// does not implement bus/vendor/product identity reporting.
	errNoIDSupport = errors.New("kernel: event source does not support identity reporting")
)
