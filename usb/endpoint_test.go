package usb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/isosim/pkg"
)

func TestMicroframePeriod(t *testing.T) {
	assert.Equal(t, 125*time.Microsecond, MicroframePeriod)
	assert.Equal(t, FramePeriod, MicroframePeriod*MicroframesPerFrame)
}

func TestNewIsochronousEndpoint(t *testing.T) {
	tests := []struct {
		name             string
		bytes            int
		wantPacket       int
		wantTransactions int
		wantErr          error
	}{
		{"default microframe", DefaultMicroframeSize, 384, 1, nil},
		{"single max packet", 1024, 1024, 1, nil},
		{"two transactions", 1025, 513, 2, nil},
		{"three transactions", 3072, 1024, 3, nil},
		{"too large", 3073, 0, 0, pkg.ErrBandwidth},
		{"zero", 0, 0, 0, pkg.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := NewIsochronousEndpoint(DefaultEndpointAddress, tt.bytes, 1)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPacket, ep.PacketSize())
			assert.Equal(t, tt.wantTransactions, ep.Transactions())
			assert.GreaterOrEqual(t, ep.BytesPerInterval(), tt.bytes)
			assert.True(t, ep.IsIsochronous())
			assert.True(t, ep.IsIn())
			assert.Equal(t, uint8(1), ep.Number())
			assert.Equal(t, uint8(IsoSyncAsync), ep.IsoSyncType())
			assert.Equal(t, uint8(IsoUsageData), ep.IsoUsageType())
			assert.NoError(t, ep.Validate(SpeedHigh))
		})
	}
}

func TestEndpointServiceInterval(t *testing.T) {
	tests := []struct {
		interval uint8
		speed    Speed
		want     time.Duration
	}{
		{1, SpeedHigh, 125 * time.Microsecond},
		{2, SpeedHigh, 250 * time.Microsecond},
		{4, SpeedHigh, time.Millisecond},
		{1, SpeedFull, time.Millisecond},
		{3, SpeedFull, 4 * time.Millisecond},
		{0, SpeedHigh, 125 * time.Microsecond},
		{200, SpeedHigh, 125 * time.Microsecond << 15},
	}

	for _, tt := range tests {
		ep := Endpoint{Attributes: EndpointTypeIsochronous, Interval: tt.interval}
		assert.Equal(t, tt.want, ep.ServiceInterval(tt.speed), "bInterval=%d %s", tt.interval, tt.speed)
	}
}

func TestEndpointValidate(t *testing.T) {
	tests := []struct {
		name    string
		ep      Endpoint
		speed   Speed
		wantErr error
	}{
		{
			name:  "high speed ok",
			ep:    Endpoint{Address: 0x81, Attributes: EndpointTypeIsochronous, MaxPacketSize: 384, Interval: 1},
			speed: SpeedHigh,
		},
		{
			name:    "bulk rejected",
			ep:      Endpoint{Address: 0x81, Attributes: EndpointTypeBulk, MaxPacketSize: 512, Interval: 1},
			speed:   SpeedHigh,
			wantErr: pkg.ErrInvalidEndpoint,
		},
		{
			name:    "interval zero",
			ep:      Endpoint{Address: 0x81, Attributes: EndpointTypeIsochronous, MaxPacketSize: 384},
			speed:   SpeedHigh,
			wantErr: pkg.ErrInvalidEndpoint,
		},
		{
			name:    "zero packet",
			ep:      Endpoint{Address: 0x81, Attributes: EndpointTypeIsochronous, Interval: 1},
			speed:   SpeedHigh,
			wantErr: pkg.ErrInvalidEndpoint,
		},
		{
			name:    "full speed packet too large",
			ep:      Endpoint{Address: 0x81, Attributes: EndpointTypeIsochronous, MaxPacketSize: 1024, Interval: 1},
			speed:   SpeedFull,
			wantErr: pkg.ErrBandwidth,
		},
		{
			name:    "full speed high bandwidth",
			ep:      Endpoint{Address: 0x81, Attributes: EndpointTypeIsochronous, MaxPacketSize: 512 | 1<<11, Interval: 1},
			speed:   SpeedFull,
			wantErr: pkg.ErrBandwidth,
		},
		{
			name:    "reserved transaction count",
			ep:      Endpoint{Address: 0x81, Attributes: EndpointTypeIsochronous, MaxPacketSize: 512 | 3<<11, Interval: 1},
			speed:   SpeedHigh,
			wantErr: pkg.ErrBandwidth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ep.Validate(tt.speed)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEndpointDescriptorRoundTrip(t *testing.T) {
	ep, err := NewIsochronousEndpoint(0x82, 2048, 2)
	require.NoError(t, err)

	var buf [EndpointDescriptorSize]byte
	require.Equal(t, EndpointDescriptorSize, ep.MarshalTo(buf[:]))
	assert.Equal(t, []byte{0x07, 0x05, 0x82, 0x05, 0x00, 0x0C, 0x02}, buf[:])

	var parsed Endpoint
	require.NoError(t, ParseEndpoint(buf[:], &parsed))
	assert.Equal(t, ep, parsed)

	assert.Equal(t, 0, ep.MarshalTo(buf[:3]))
}

func TestParseEndpointErrors(t *testing.T) {
	var ep Endpoint
	assert.ErrorIs(t, ParseEndpoint([]byte{0x07, 0x05}, &ep), pkg.ErrDescriptorTooShort)
	assert.ErrorIs(t, ParseEndpoint([]byte{0x07, 0x04, 0x81, 0x01, 0x80, 0x01, 0x01}, &ep), pkg.ErrDescriptorTypeMismatch)
}

func TestEndpointString(t *testing.T) {
	ep, err := NewIsochronousEndpoint(DefaultEndpointAddress, DefaultMicroframeSize, 1)
	require.NoError(t, err)
	assert.Equal(t, "EP1 IN Isochronous 384x1 bInterval=1", ep.String())
	assert.Equal(t, "OUT", DirectionName(EndpointDirectionOut))
	assert.Equal(t, "Bulk", TransferTypeName(EndpointTypeBulk))
}

func TestSpeedString(t *testing.T) {
	assert.Equal(t, "High Speed (480 Mbps)", SpeedHigh.String())
	assert.Equal(t, "Full Speed (12 Mbps)", SpeedFull.String())
	assert.Equal(t, "Unknown Speed (7)", Speed(7).String())
	assert.Equal(t, 1024, SpeedHigh.MaxIsoPacketSize())
	assert.Equal(t, 1023, SpeedFull.MaxIsoPacketSize())
}
