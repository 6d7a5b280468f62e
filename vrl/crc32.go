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

package vrl

// VITA-49.1's VRL trailer CRC (spec.md §4.5) is CRC-32/IEEE-802.3's
// polynomial computed MSB-first with no input/output reflection — the
// opposite bit order from the reflected table hash/crc32's IEEE table
// produces, so it cannot be built with crc32.MakeTable: that constructor
// only ever emits reflected tables. The table below is generated the same
// way any non-reflected CRC implementation generates one, shifting the
// polynomial in from the top of the word instead of the bottom.
const crc32Poly = 0x04C11DB7

var crc32Table [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for bit := 0; bit < 8; bit++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ crc32Poly
			} else {
				crc <<= 1
			}
		}
		crc32Table[i] = crc
	}
}

// crc32NonReflected computes the VRL trailer CRC over data: initial value
// 0xFFFFFFFF, MSB-first table lookup, final XOR 0xFFFFFFFF (spec.md §4.5).
func crc32NonReflected(data []byte) uint32 {
	crc := uint32(0xFFFFFFFF)
	for _, b := range data {
		idx := byte(crc>>24) ^ b
		crc = (crc << 8) ^ crc32Table[idx]
	}
	return crc ^ 0xFFFFFFFF
}
