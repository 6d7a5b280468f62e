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

package leapseconds

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"sort"
)

// systemTZFile is the right/UTC zoneinfo database, which (unlike ordinary
// zoneinfo files) encodes true UTC by embedding every historical leap
// second as a timezone-style transition.
const systemTZFile = "/usr/share/zoneinfo/right/UTC"

var (
	errBadTZData    = errors.New("leapseconds: malformed time zone information")
	errBadTZVersion = errors.New("leapseconds: unsupported time zone data version")
)

// LoadSystemTZ builds a Table from the host's right/UTC zoneinfo database,
// an alternative to Load for hosts without a dedicated tai-utc.dat bulletin
// file but with an up-to-date tzdata package installed.
func LoadSystemTZ() (*Table, error) {
	f, err := os.Open(systemTZFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadSystemTZReader(f)
}

func loadSystemTZReader(r io.Reader) (*Table, error) {
	rows, err := parseTZif(r)
	if err != nil {
		return nil, err
	}
	t := &Table{}
	for _, row := range rows {
		// tleap is the UTC-scale instant at which the table's cumulative
		// count reaches nleap; the zoneinfo nleap column is already a count
		// of leap seconds since 1970, matching this package's convention.
		posix := int64(row.tleap) - int64(row.nleap)
		t.startPOSIX = append(t.startPOSIX, posix)
		t.leap = append(t.leap, row.nleap)
	}
	sortRows(t)
	t.deriveUTC()
	return t, nil
}

type tzLeapRow struct {
	tleap uint64
	nleap int32
}

// parseTZif extracts the leap-second table from a binary TZif file, walking
// past the version-1 body to the version-2/3 64-bit body when present. This
// mirrors the structure of a standard tzdata binary reader, reduced to the
// one section this package actually needs.
func parseTZif(r io.Reader) ([]tzLeapRow, error) {
	var rows []tzLeapRow
	for v := byte(0); v < 2; v++ {
		magic := make([]byte, 4)
		if _, err := io.ReadFull(r, magic); err != nil || string(magic) != "TZif" {
			return nil, errBadTZData
		}

		header := make([]byte, 16)
		if _, err := io.ReadFull(r, header); err != nil {
			return nil, errBadTZData
		}
		version := header[0]
		if version != 0 && version != '2' && version != '3' {
			return nil, errBadTZVersion
		}
		if v > version {
			return nil, errBadTZData
		}

		const (
			nUTCLocal = iota
			nStdWall
			nLeap
			nTime
			nZone
			nChar
		)
		var counts [6]int32
		if err := binary.Read(r, binary.BigEndian, &counts); err != nil {
			return nil, err
		}

		var skip int64
		if v == 0 {
			skip = int64(counts[nTime])*5 + int64(counts[nZone])*6 + int64(counts[nChar])
		} else {
			skip = int64(counts[nTime])*9 + int64(counts[nZone])*6 + int64(counts[nChar])
		}
		if v == 0 && version > 0 {
			skip += int64(counts[nLeap])*8 + int64(counts[nUTCLocal]) + int64(counts[nStdWall])
		}
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, errBadTZData
		}

		if v == 0 && version > 0 {
			continue
		}

		trailingSkip := int64(counts[nUTCLocal]) + int64(counts[nStdWall])
		for i := int32(0); i < counts[nLeap]; i++ {
			var row tzLeapRow
			if version == 0 {
				var raw [2]uint32
				if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
					return nil, err
				}
				row.tleap = uint64(raw[0])
				row.nleap = int32(raw[1])
			} else {
				var raw struct {
					Tleap uint64
					Nleap int32
				}
				if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
					return nil, err
				}
				row.tleap = raw.Tleap
				row.nleap = raw.Nleap
			}
			rows = append(rows, row)
		}
		io.CopyN(io.Discard, r, trailingSkip) //nolint:errcheck
		break
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].tleap < rows[j].tleap })
	return rows, nil
}
