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

// Package vrttime implements the multi-epoch timestamp model VRT packets
// carry: an integer-seconds part on one of several epochs, plus a
// picosecond-precision fractional part, resolved against an explicit
// leap-seconds table rather than a process-global default.
package vrttime

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/RedhawkSDR/VITA49-sub001/leapseconds"
)

// Epoch identifies the integer-seconds origin a Timestamp's Seconds field
// is counted against.
type Epoch uint8

// Supported epochs.
const (
	UTC Epoch = iota
	GPS
	POSIX
	Midas
	NORAD
	IRIG
	PTP
)

func (e Epoch) String() string {
	switch e {
	case UTC:
		return "UTC"
	case GPS:
		return "GPS"
	case POSIX:
		return "POSIX"
	case Midas:
		return "Midas"
	case NORAD:
		return "NORAD"
	case IRIG:
		return "IRIG"
	case PTP:
		return "PTP"
	default:
		return fmt.Sprintf("Epoch(%d)", uint8(e))
	}
}

// gpsEpochOffsetPOSIX is the GPS epoch in POSIX seconds: 3657 days since
// 1970-01-01 at 86400 s/day. The leap table's GPS-scale values count from
// 1970-01-01 like POSIX time, so subtracting this gives seconds since the
// GPS epoch. Together with the table's constant UTC-GPS step of 11 s, a
// GPS second g corresponds to UTC-scale second g + 315,964,811.
const gpsEpochOffsetPOSIX = 315964800 // 1980-01-06 00:00:00 UTC, in POSIX seconds

// ptpToGPSOffset is the fixed offset PTP (TAI-based, seconds since
// 1970-01-01 TAI) uses relative to GPS time; GPS and TAI never drift
// apart, so this never changes even as new leap seconds are declared.
const ptpToGPSOffset = 315964819

var (
	// ErrBeforeEpoch is returned when converting a Timestamp whose epoch
	// requires dates the epoch does not define (e.g. PTP/GPS before 1980).
	ErrBeforeEpoch = errors.New("vrttime: time predates the target epoch's origin")
	// ErrOutOfRange is returned when a value would overflow the 32-bit
	// integer-seconds or picosecond-fractional representable range.
	ErrOutOfRange = errors.New("vrttime: value out of representable range")
)

const picosPerSecond = 1_000_000_000_000

// Timestamp is a VRT integer+fractional timestamp on a given epoch. The
// fractional part is always picoseconds in [0, 1e12) regardless of epoch;
// a nil Leap table is valid for every epoch: conversions that need
// leap-second math (UTC, GPS, PTP, NORAD, IRIG) then use
// leapseconds.Default().
type Timestamp struct {
	Epoch    Epoch
	Seconds  uint32 // integer seconds since the epoch's origin
	Picos    uint64 // fractional seconds, picoseconds, in [0, 1e12)
	Leap     *leapseconds.Table
	SampleHz float64 // sample rate, for SampleCount-mode fractional parts; 0 if unused
}

// IsNull reports whether the timestamp carries no time information at all
// (both modes None is represented upstream in the packet layer; at this
// type's level a null timestamp is the zero value with SampleHz unset).
func (t Timestamp) IsNull() bool {
	return t.Seconds == 0 && t.Picos == 0 && t.SampleHz == 0
}

func (t Timestamp) withLeap(l *leapseconds.Table) *leapseconds.Table {
	if t.Leap != nil {
		return t.Leap
	}
	return l
}

// ToPOSIX converts the timestamp to POSIX (UTC, without leap seconds)
// integer seconds and picoseconds.
func (t Timestamp) ToPOSIX() (uint32, uint64, error) {
	switch t.Epoch {
	case POSIX:
		return t.Seconds, t.Picos, nil
	case Midas:
		posix := int64(t.Seconds) - leapseconds.MidasToPOSIXOffset
		if posix < 0 {
			return 0, 0, ErrOutOfRange
		}
		return uint32(posix), t.Picos, nil
	case UTC:
		tbl := t.leapTable()
		posix, err := tbl.UTCToPosix(int64(t.Seconds))
		if err != nil {
			return 0, 0, err
		}
		if posix < 0 {
			return 0, 0, ErrOutOfRange
		}
		return uint32(posix), t.Picos, nil
	case GPS:
		tbl := t.leapTable()
		utc, err := tbl.GPSToUTC(int64(t.Seconds) + gpsEpochOffsetPOSIX)
		if err != nil {
			return 0, 0, err
		}
		posix, err := tbl.UTCToPosix(utc)
		if err != nil {
			return 0, 0, err
		}
		return uint32(posix), t.Picos, nil
	case PTP:
		// PTP counts TAI seconds since 1970-01-01; convert via the fixed
		// PTP->GPS offset, then GPS->UTC->POSIX using the leap table.
		gps := int64(t.Seconds) - ptpToGPSOffset
		if gps < 0 {
			return 0, 0, ErrBeforeEpoch
		}
		return Timestamp{Epoch: GPS, Seconds: uint32(gps), Picos: t.Picos, Leap: t.Leap}.ToPOSIX()
	default:
		return 0, 0, fmt.Errorf("vrttime: %s epoch has no direct POSIX conversion", t.Epoch)
	}
}

func (t Timestamp) leapTable() *leapseconds.Table {
	if t.Leap != nil {
		return t.Leap
	}
	return leapseconds.Default()
}

// ToUTC converts the timestamp to UTC (POSIX plus accumulated leap
// seconds) integer seconds and picoseconds.
func (t Timestamp) ToUTC() (uint32, uint64, error) {
	posix, picos, err := t.ToPOSIX()
	if err != nil {
		return 0, 0, err
	}
	utc, err := t.leapTable().PosixToUTC(int64(posix))
	if err != nil {
		return 0, 0, err
	}
	if utc < 0 || utc > math.MaxUint32 {
		return 0, 0, ErrOutOfRange
	}
	return uint32(utc), picos, nil
}

// ToGPS converts the timestamp to GPS-scale integer seconds and
// picoseconds, relative to the 1980-01-06 00:00:00 GPS epoch.
func (t Timestamp) ToGPS() (uint32, uint64, error) {
	posix, picos, err := t.ToPOSIX()
	if err != nil {
		return 0, 0, err
	}
	utc, err := t.leapTable().PosixToUTC(int64(posix))
	if err != nil {
		return 0, 0, err
	}
	gps, err := t.leapTable().UTCToGPS(utc)
	if err != nil {
		return 0, 0, err
	}
	gps -= gpsEpochOffsetPOSIX
	if gps < 0 {
		return 0, 0, ErrBeforeEpoch
	}
	if gps > math.MaxUint32 {
		return 0, 0, ErrOutOfRange
	}
	return uint32(gps), picos, nil
}

// FromPOSIX builds a Timestamp directly on the POSIX epoch.
func FromPOSIX(seconds uint32, picos uint64, leap *leapseconds.Table) Timestamp {
	return Timestamp{Epoch: POSIX, Seconds: seconds, Picos: picos, Leap: leap}
}

// FromTime converts a standard library time.Time (assumed UTC) into a
// Timestamp on the UTC epoch.
func FromTime(t time.Time, leap *leapseconds.Table) (Timestamp, error) {
	tbl := leap
	if tbl == nil {
		tbl = leapseconds.Default()
	}
	posix := t.Unix()
	utc, err := tbl.PosixToUTC(posix)
	if err != nil {
		return Timestamp{}, err
	}
	if utc < 0 || utc > math.MaxUint32 {
		return Timestamp{}, ErrOutOfRange
	}
	picos := uint64(t.Nanosecond()) * 1000
	return Timestamp{Epoch: UTC, Seconds: uint32(utc), Picos: picos, Leap: tbl}, nil
}

// Time converts the timestamp to a standard library time.Time in UTC. Leap
// seconds collapse onto the following POSIX second, matching time.Time's
// inability to represent :60.
func (t Timestamp) Time() (time.Time, error) {
	posix, picos, err := t.ToPOSIX()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(posix), int64(picos/1000)).UTC(), nil
}

// IsLeapSecond reports whether this UTC-epoch timestamp names a leap
// second instant.
func (t Timestamp) IsLeapSecond() (bool, error) {
	utc, _, err := t.ToUTC()
	if err != nil {
		return false, err
	}
	return t.leapTable().IsLeapSecond(int64(utc))
}

// String renders the timestamp as RFC 3339 with a picosecond fraction
// (omitted when zero) and an epoch suffix, e.g. "2024-01-02T03:04:05Z
// (UTC)" or "...(GPS)".
func (t Timestamp) String() string {
	tm, err := t.Time()
	if err != nil {
		return fmt.Sprintf("<invalid %s timestamp: %v>", t.Epoch, err)
	}
	base := tm.Format("2006-01-02T15:04:05")
	if t.Picos != 0 {
		base += fmt.Sprintf(".%012d", t.Picos)
	}
	return base + "Z (" + t.Epoch.String() + ")"
}
