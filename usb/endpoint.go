package usb

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ardnew/isosim/pkg"
)

// Endpoint transfer types (USB 2.0 Spec Table 9-13).
const (
	EndpointTypeControl     = 0x00 // Control transfer
	EndpointTypeIsochronous = 0x01 // Isochronous transfer
	EndpointTypeBulk        = 0x02 // Bulk transfer
	EndpointTypeInterrupt   = 0x03 // Interrupt transfer
)

// Endpoint directions.
const (
	EndpointDirectionOut = 0x00 // Host to device
	EndpointDirectionIn  = 0x80 // Device to host
)

// Isochronous synchronization types (bits 2-3 of Attributes).
const (
	IsoSyncNone     = 0x00 // No synchronization
	IsoSyncAsync    = 0x04 // Asynchronous
	IsoSyncAdaptive = 0x08 // Adaptive
	IsoSyncSync     = 0x0C // Synchronous
)

// Isochronous usage types (bits 4-5 of Attributes).
const (
	IsoUsageData     = 0x00 // Data endpoint
	IsoUsageFeedback = 0x10 // Feedback endpoint
	IsoUsageImplicit = 0x20 // Implicit feedback data endpoint
)

// Endpoint descriptor layout.
const (
	DescriptorTypeEndpoint = 0x05
	EndpointDescriptorSize = 7
)

// wMaxPacketSize fields (USB 2.0 Spec Table 9-14).
const (
	maxPacketSizeMask     = 0x07FF
	transactionsShift     = 11
	transactionsFieldMask = 0x03
)

// DefaultEndpointAddress is the streaming endpoint used when none is given (EP1 IN).
const DefaultEndpointAddress = EndpointDirectionIn | 0x01

// Endpoint describes the isochronous endpoint a stream is scheduled on.
type Endpoint struct {
	Address       uint8  // Endpoint address including direction
	Attributes    uint8  // Transfer type and sync/usage for isochronous
	MaxPacketSize uint16 // wMaxPacketSize including additional transactions
	Interval      uint8  // bInterval, service period is 2^(Interval-1) bus intervals
}

// NewIsochronousEndpoint creates an asynchronous isochronous data endpoint
// able to move bytesPerInterval bytes each service interval. Payloads above
// one High Speed packet are split across additional transactions.
func NewIsochronousEndpoint(address uint8, bytesPerInterval int, interval uint8) (Endpoint, error) {
	if bytesPerInterval <= 0 {
		return Endpoint{}, fmt.Errorf("%w: %d bytes per interval", pkg.ErrInvalidParameter, bytesPerInterval)
	}
	transactions := (bytesPerInterval + MaxIsoPacketSizeHigh - 1) / MaxIsoPacketSizeHigh
	if transactions > MaxIsoTransactions {
		return Endpoint{}, fmt.Errorf("%w: %d bytes per microframe exceeds %d",
			pkg.ErrBandwidth, bytesPerInterval, MaxIsoTransactions*MaxIsoPacketSizeHigh)
	}
	packet := (bytesPerInterval + transactions - 1) / transactions
	ep := Endpoint{
		Address:       address,
		Attributes:    EndpointTypeIsochronous | IsoSyncAsync | IsoUsageData,
		MaxPacketSize: uint16(packet) | uint16(transactions-1)<<transactionsShift,
		Interval:      interval,
	}
	return ep, nil
}

// Number returns the endpoint number (0-15).
func (e *Endpoint) Number() uint8 {
	return e.Address & 0x0F
}

// Direction returns the endpoint direction (EndpointDirectionIn or EndpointDirectionOut).
func (e *Endpoint) Direction() uint8 {
	return e.Address & 0x80
}

// IsIn returns true if this is an IN endpoint (device to host).
func (e *Endpoint) IsIn() bool {
	return e.Direction() == EndpointDirectionIn
}

// IsOut returns true if this is an OUT endpoint (host to device).
func (e *Endpoint) IsOut() bool {
	return e.Direction() == EndpointDirectionOut
}

// TransferType returns the transfer type (Control, Isochronous, Bulk, or Interrupt).
func (e *Endpoint) TransferType() uint8 {
	return e.Attributes & 0x03
}

// IsIsochronous returns true if this is an isochronous endpoint.
func (e *Endpoint) IsIsochronous() bool {
	return e.TransferType() == EndpointTypeIsochronous
}

// IsoSyncType returns the isochronous synchronization type.
func (e *Endpoint) IsoSyncType() uint8 {
	return e.Attributes & 0x0C
}

// IsoUsageType returns the isochronous usage type.
func (e *Endpoint) IsoUsageType() uint8 {
	return e.Attributes & 0x30
}

// PacketSize returns the per-transaction packet size (bits 0-10 of wMaxPacketSize).
func (e *Endpoint) PacketSize() int {
	return int(e.MaxPacketSize & maxPacketSizeMask)
}

// Transactions returns the number of transactions per service interval (1-3).
func (e *Endpoint) Transactions() int {
	return int(e.MaxPacketSize>>transactionsShift&transactionsFieldMask) + 1
}

// BytesPerInterval returns the payload the endpoint can move each service interval.
func (e *Endpoint) BytesPerInterval() int {
	return e.PacketSize() * e.Transactions()
}

// ServiceInterval returns the period between isochronous transfers at speed.
// An out-of-range bInterval is clamped to 1..16.
func (e *Endpoint) ServiceInterval(speed Speed) time.Duration {
	exp := int(e.Interval)
	switch {
	case exp < 1:
		exp = 1
	case exp > 16:
		exp = 16
	}
	return speed.BaseInterval() << (exp - 1)
}

// Validate checks that the endpoint can be scheduled isochronously at speed.
func (e *Endpoint) Validate(speed Speed) error {
	if !e.IsIsochronous() {
		return fmt.Errorf("%w: %s transfer type", pkg.ErrInvalidEndpoint, TransferTypeName(e.TransferType()))
	}
	if e.Interval < 1 || e.Interval > 16 {
		return fmt.Errorf("%w: bInterval %d outside 1..16", pkg.ErrInvalidEndpoint, e.Interval)
	}
	if e.PacketSize() == 0 {
		return fmt.Errorf("%w: zero packet size", pkg.ErrInvalidEndpoint)
	}
	if e.PacketSize() > speed.MaxIsoPacketSize() {
		return fmt.Errorf("%w: packet size %d exceeds %d at %s",
			pkg.ErrBandwidth, e.PacketSize(), speed.MaxIsoPacketSize(), speed)
	}
	limit := 1
	if speed == SpeedHigh {
		limit = MaxIsoTransactions
	}
	if e.Transactions() > limit {
		return fmt.Errorf("%w: %d transactions per interval at %s",
			pkg.ErrBandwidth, e.Transactions(), speed)
	}
	return nil
}

// MarshalTo serializes the endpoint descriptor to buf.
// Returns the number of bytes written (always 7 if buf is large enough).
func (e *Endpoint) MarshalTo(buf []byte) int {
	if len(buf) < EndpointDescriptorSize {
		return 0
	}
	buf[0] = EndpointDescriptorSize
	buf[1] = DescriptorTypeEndpoint
	buf[2] = e.Address
	buf[3] = e.Attributes
	binary.LittleEndian.PutUint16(buf[4:6], e.MaxPacketSize)
	buf[6] = e.Interval
	return EndpointDescriptorSize
}

// ParseEndpoint parses an endpoint descriptor from bytes into out.
// Returns an error if the data is too short or the descriptor type is wrong.
func ParseEndpoint(data []byte, out *Endpoint) error {
	if len(data) < EndpointDescriptorSize {
		return pkg.ErrDescriptorTooShort
	}
	if data[1] != DescriptorTypeEndpoint {
		return pkg.ErrDescriptorTypeMismatch
	}
	out.Address = data[2]
	out.Attributes = data[3]
	out.MaxPacketSize = binary.LittleEndian.Uint16(data[4:6])
	out.Interval = data[6]
	return nil
}

// String returns a compact description such as "EP1 IN Isochronous 384x1 bInterval=1".
func (e *Endpoint) String() string {
	return fmt.Sprintf("EP%d %s %s %dx%d bInterval=%d",
		e.Number(), DirectionName(e.Direction()), TransferTypeName(e.TransferType()),
		e.PacketSize(), e.Transactions(), e.Interval)
}

// TransferTypeName returns a human-readable transfer type name.
func TransferTypeName(t uint8) string {
	switch t & 0x03 {
	case EndpointTypeControl:
		return "Control"
	case EndpointTypeIsochronous:
		return "Isochronous"
	case EndpointTypeBulk:
		return "Bulk"
	default:
		return "Interrupt"
	}
}

// DirectionName returns a human-readable direction name.
func DirectionName(dir uint8) string {
	if dir == EndpointDirectionIn {
		return "IN"
	}
	return "OUT"
}
