// Package usb models the parts of USB 2.0 that govern isochronous timing.
//
// It provides the bus timing constants (1 ms frames split into eight 125 µs
// High Speed microframes), the default audio microframe payload, and the
// [Endpoint] type describing the isochronous endpoint a stream is scheduled
// on. An endpoint's bInterval determines the consumer's tick period:
//
//	ep, _ := usb.NewIsochronousEndpoint(usb.DefaultEndpointAddress, 384, 1)
//	period := ep.ServiceInterval(usb.SpeedHigh) // 125µs
//
// Endpoints serialize to and from the 7-byte standard endpoint descriptor
// with [Endpoint.MarshalTo] and [ParseEndpoint], using caller-provided
// buffers.
package usb
