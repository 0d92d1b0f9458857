package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ardnew/isosim/usb"
)

func newEndpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoint",
		Short: "Print the endpoint descriptor a stream would be scheduled on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ep, err := usb.NewIsochronousEndpoint(uint8(cfg.Endpoint.Address), cfg.Stream.FrameSize, uint8(cfg.Endpoint.Interval))
			if err != nil {
				return err
			}
			if err := ep.Validate(usb.SpeedHigh); err != nil {
				return err
			}

			desc := make([]byte, usb.EndpointDescriptorSize)
			ep.MarshalTo(desc)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "endpoint         %s\n", ep.String())
			fmt.Fprintf(out, "wMaxPacketSize   %#04x (%d bytes x %d)\n", ep.MaxPacketSize, ep.PacketSize(), ep.Transactions())
			fmt.Fprintf(out, "service interval %v\n", ep.ServiceInterval(usb.SpeedHigh))
			fmt.Fprintf(out, "descriptor       % x\n", desc)
			return nil
		},
	}
	addStreamFlags(cmd.Flags())
	return cmd
}
