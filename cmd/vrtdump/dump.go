/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/RedhawkSDR/VITA49-sub001/vrl"
	"github.com/RedhawkSDR/VITA49-sub001/vrt"
)

var dumpVRLFlag bool

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().BoolVar(&dumpVRLFlag, "vrl", false, "input is VRL-framed rather than naked VRT packets")
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Decode every VRT packet in a file and print a summary table",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		configureVerbosity()
		if err := dumpRun(args[0], dumpVRLFlag); err != nil {
			log.Fatal(err)
		}
	},
}

// splitPackets returns the naked VRT packets found in data, unframing VRL
// if vrlFramed is set, each packet found by trusting its own declared
// word length the same way vrl.Frame.Packets does.
func splitPackets(data []byte, vrlFramed bool) ([][]byte, error) {
	if !vrlFramed {
		var out [][]byte
		off := 0
		for off < len(data) {
			if len(data)-off < 4 {
				return nil, fmt.Errorf("%d trailing bytes too short for a packet header", len(data)-off)
			}
			words := int(data[off+2])<<8 | int(data[off+3])
			words &= 0xFFFF
			if words == 0 {
				return nil, fmt.Errorf("packet at offset %d declares zero length", off)
			}
			end := off + words*4
			if end > len(data) {
				return nil, fmt.Errorf("packet at offset %d declares %d words, exceeding input", off, words)
			}
			out = append(out, data[off:end])
			off = end
		}
		return out, nil
	}

	var out [][]byte
	off := 0
	for off < len(data) {
		f, err := vrl.NewFrame(data[off:])
		if err != nil {
			return nil, fmt.Errorf("frame at offset %d: %w", off, err)
		}
		pkts, err := f.Packets()
		if err != nil {
			return nil, fmt.Errorf("frame at offset %d: %w", off, err)
		}
		out = append(out, pkts...)
		off += len(f.Bytes())
	}
	return out, nil
}

func dumpRun(path string, vrlFramed bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}

	pkts, err := splitPackets(data, vrlFramed)
	if err != nil {
		return fmt.Errorf("splitting packets: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "type", "stream id", "class id", "TSI", "TSF", "count", "words"})

	for i, buf := range pkts {
		p, err := vrt.DecodePacket(buf)
		if err != nil {
			table.Append([]string{fmt.Sprintf("%d", i), "ERROR", "", "", "", "", "", err.Error()})
			continue
		}
		h, err := p.Header()
		if err != nil {
			table.Append([]string{fmt.Sprintf("%d", i), "ERROR", "", "", "", "", "", err.Error()})
			continue
		}
		streamID := "-"
		if id, ok, _ := p.StreamID(); ok {
			streamID = fmt.Sprintf("%#08x", id)
		}
		classID := "-"
		if cid, ok, _ := p.ClassID(); ok {
			classID = fmt.Sprintf("%06x:%04x:%04x", cid.OUI, cid.ICC, cid.PCC)
		}
		table.Append([]string{
			fmt.Sprintf("%d", i),
			h.Type.String(),
			streamID,
			classID,
			fmt.Sprintf("%d", h.TSI),
			fmt.Sprintf("%d", h.TSF),
			fmt.Sprintf("%d", h.PacketCount),
			fmt.Sprintf("%d", h.PacketWordCount),
		})
	}
	table.Render()
	return nil
}
