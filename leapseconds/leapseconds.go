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

// Package leapseconds models the historical and present TAI-UTC offset used
// to convert between the Midas, POSIX, UTC and GPS time epochs. A Table is
// an explicit value a caller constructs once (Default, Load or LoadSystemTZ)
// and threads through the vrttime package; there is no package-level
// singleton, so tests can run concurrently against independent tables.
package leapseconds

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// MidasToPOSIXOffset is the offset between the Midas epoch (1 Jan 1950) and
// the POSIX epoch (1 Jan 1970): 20 years of days at 86,400 seconds/day.
const MidasToPOSIXOffset = 631152000

const midasToPOSIX = MidasToPOSIXOffset

// utc2taiLS1970 is the whole-second part of the TAI-UTC offset at the POSIX
// epoch (1970-01-01T00:00:00 UTC), used to rebase the tai-utc.dat file's
// absolute TAI-UTC column onto a "leap seconds since 1970" scale.
const utc2taiLS1970 = 8

// preDrift1972 is subtracted in full from every pre-1972 polynomial value,
// putting those results on the same since-1970 scale as the post-1972 rows
// (whose counts are TAI-UTC less utc2taiLS1970). Its fractional .000082 is
// carried from the original reference data without further explanation.
const preDrift1972 = 8.000082

// pre1972Row is one row of the pre-1972 TAI-UTC polynomial. startMidas holds
// the row's first instant as POSIX seconds (negative: before 1970); offset is
// in Midas seconds. For Midas seconds-and-fraction t within the row, the
// value is constant + (t - offset) * (scale / 86400) - preDrift1972, that is
// TAI-UTC(t) less the 1970 baseline.
type pre1972Row struct {
	startMidas float64
	constant   float64
	offset     float64
	scale      float64
}

// pre1972 transcribes the thirteen TAI-UTC polynomial segments defined for
// 1961-01-01 through 1972-01-01. Row starts are POSIX seconds; offsets are
// Midas seconds (seconds since 1 Jan 1950).
var pre1972 = []pre1972Row{
	{-3287.0 * 86400.0, 1.422818, 3.471552e8, 0.001296},
	{-3075.0 * 86400.0, 1.372818, 3.471552e8, 0.001296},
	{-2922.0 * 86400.0, 1.845858, 3.786912e8, 0.0011232},
	{-2253.0 * 86400.0, 1.945858, 3.786912e8, 0.0011232},
	{-2192.0 * 86400.0, 3.24013, 4.733856e8, 0.001296},
	{-2101.0 * 86400.0, 3.34013, 4.733856e8, 0.001296},
	{-1948.0 * 86400.0, 3.44013, 4.733856e8, 0.001296},
	{-1826.0 * 86400.0, 3.54013, 4.733856e8, 0.001296},
	{-1767.0 * 86400.0, 3.64013, 4.733856e8, 0.001296},
	{-1645.0 * 86400.0, 3.74013, 4.733856e8, 0.001296},
	{-1583.0 * 86400.0, 3.84013, 4.733856e8, 0.001296},
	{-1461.0 * 86400.0, 4.31317, 5.049216e8, 0.002592},
	{-700.0 * 86400.0, 4.21317, 5.049216e8, 0.002592},
}

// Table is an ordered, immutable set of post-1972 leap second insertions,
// plus the fixed pre-1972 polynomial, sufficient to convert between POSIX,
// UTC, GPS and Midas seconds for any date from 1961-01-01 onward.
type Table struct {
	startPOSIX []int64 // POSIX seconds at which each row's offset takes effect
	startUTC   []int64 // startPOSIX[i] + leap[i]
	leap       []int32 // leap seconds accumulated since 1970-01-01, per row
}

var (
	// ErrBeforeSupportedRange is returned for dates before 1961-01-01, where
	// no TAI-UTC data exists.
	ErrBeforeSupportedRange = errors.New("leapseconds: date precedes 1961-01-01, no TAI-UTC data available")
	// ErrBefore1972 is returned by POSIX/UTC table lookups (which only cover
	// the post-1972 integer-leap-second era) for earlier dates.
	ErrBefore1972 = errors.New("leapseconds: date precedes 1972-01-01, use Midas-based lookup instead")
	errMalformed  = errors.New("leapseconds: malformed tai-utc.dat data")
)

// defaultRows is the embedded tai-utc.dat table transcribed from the
// standard NIST/USNO bulletin as it stood through the 2017-01-01 insertion.
// Load can supply a newer table from an up-to-date bulletin file.
var defaultRows = []struct {
	year, month, day int
	taiUTC           int
}{
	{1972, 1, 1, 10}, {1972, 7, 1, 11}, {1973, 1, 1, 12}, {1974, 1, 1, 13},
	{1975, 1, 1, 14}, {1976, 1, 1, 15}, {1977, 1, 1, 16}, {1978, 1, 1, 17},
	{1979, 1, 1, 18}, {1980, 1, 1, 19}, {1981, 7, 1, 20}, {1982, 7, 1, 21},
	{1983, 7, 1, 22}, {1985, 7, 1, 23}, {1988, 1, 1, 24}, {1990, 1, 1, 25},
	{1991, 1, 1, 26}, {1992, 7, 1, 27}, {1993, 7, 1, 28}, {1994, 7, 1, 29},
	{1996, 1, 1, 30}, {1997, 7, 1, 31}, {1999, 1, 1, 32}, {2006, 1, 1, 33},
	{2009, 1, 1, 34}, {2012, 7, 1, 35}, {2015, 7, 1, 36}, {2017, 1, 1, 37},
}

// isLeapYear reports whether year is a Gregorian leap year.
func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

var daysBeforeMonth = [13]int{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// ymdToPOSIXDay returns the number of days between 1970-01-01 and the given
// UTC calendar date.
func ymdToPOSIXDay(year, month, day int) int64 {
	days := int64(0)
	if year >= 1970 {
		for y := 1970; y < year; y++ {
			if isLeapYear(y) {
				days += 366
			} else {
				days += 365
			}
		}
	} else {
		for y := year; y < 1970; y++ {
			if isLeapYear(y) {
				days -= 366
			} else {
				days -= 365
			}
		}
	}
	days += int64(daysBeforeMonth[month] - 1 + day)
	if month > 2 && isLeapYear(year) {
		days++
	}
	return days
}

// Default returns the built-in Table, sourced from the reference
// implementation's compiled-in tai-utc.dat vintage (through 2015-07-01,
// plus the well-known 2017-01-01 insertion carried forward since no further
// leap second has been declared as of this writing).
func Default() *Table {
	t := &Table{}
	for _, row := range defaultRows {
		posix := ymdToPOSIXDay(row.year, row.month, row.day) * 86400
		leap := int32(row.taiUTC - utc2taiLS1970)
		t.startPOSIX = append(t.startPOSIX, posix)
		t.leap = append(t.leap, leap)
	}
	t.deriveUTC()
	return t
}

func (t *Table) deriveUTC() {
	t.startUTC = make([]int64, len(t.startPOSIX))
	for i := range t.startPOSIX {
		t.startUTC[i] = t.startPOSIX[i] + int64(t.leap[i])
	}
}

// Load parses a tai-utc.dat-format reader (the NIST/USNO bulletin format:
// lines of the form " 1972 JAN  1 =JD 2441317.5  TAI-UTC=  10.0       S +
// ...") into a Table. Only the year/month/day and TAI-UTC columns are used;
// the pre-1972 polynomial rows are always the built-in ones since no
// distributed bulletin file carries them.
func Load(r io.Reader) (*Table, error) {
	t := &Table{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if len(line) < 40 || !strings.Contains(line, "TAI-UTC") {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(line[1:5]))
		if err != nil {
			return nil, fmt.Errorf("leapseconds: parsing year: %w", err)
		}
		month, ok := monthNumber(strings.TrimSpace(line[6:9]))
		if !ok {
			return nil, fmt.Errorf("%w: unrecognized month %q", errMalformed, line[6:9])
		}
		day, err := strconv.Atoi(strings.TrimSpace(line[10:12]))
		if err != nil {
			return nil, fmt.Errorf("leapseconds: parsing day: %w", err)
		}
		idx := strings.Index(line, "TAI-UTC=")
		if idx < 0 {
			return nil, fmt.Errorf("%w: missing TAI-UTC column", errMalformed)
		}
		rest := strings.TrimSpace(line[idx+len("TAI-UTC="):])
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: missing TAI-UTC value", errMalformed)
		}
		taiUTC, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("leapseconds: parsing TAI-UTC value: %w", err)
		}

		posix := ymdToPOSIXDay(year, month, day) * 86400
		leap := int32(int(taiUTC) - utc2taiLS1970)
		t.startPOSIX = append(t.startPOSIX, posix)
		t.leap = append(t.leap, leap)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(t.startPOSIX) == 0 {
		return nil, fmt.Errorf("%w: no TAI-UTC rows found", errMalformed)
	}
	sortRows(t)
	t.deriveUTC()
	return t, nil
}

func sortRows(t *Table) {
	idx := make([]int, len(t.startPOSIX))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return t.startPOSIX[idx[a]] < t.startPOSIX[idx[b]] })
	posix := make([]int64, len(idx))
	leap := make([]int32, len(idx))
	for i, j := range idx {
		posix[i] = t.startPOSIX[j]
		leap[i] = t.leap[j]
	}
	t.startPOSIX = posix
	t.leap = leap
}

func monthNumber(name string) (int, bool) {
	months := map[string]int{
		"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
		"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
	}
	m, ok := months[name]
	return m, ok
}

// LeapSecondsMidas returns the leap-second offset relative to 1970, in
// seconds, at the given Midas time (wsec whole seconds + fsec fractional
// seconds since 1 Jan 1950). Dates from the table's first entry on defer to
// LeapSecondsPOSIX and the POSIX epoch itself gives 0; earlier dates back to
// 1961-01-01 use the pre-1972 polynomial, whose TAI-UTC value is reported
// less preDrift1972.
func (t *Table) LeapSecondsMidas(wsec, fsec float64) (float64, error) {
	posix := wsec - midasToPOSIX
	if len(t.startPOSIX) > 0 && posix >= float64(t.startPOSIX[0]) {
		v, err := t.LeapSecondsPOSIX(int64(posix))
		return float64(v), err
	}
	if posix == 0 {
		return 0, nil
	}
	for i := len(pre1972) - 1; i >= 0; i-- {
		row := pre1972[i]
		if row.startMidas > posix {
			continue
		}
		return row.constant + (wsec+fsec-row.offset)*(row.scale/86400.0) - preDrift1972, nil
	}
	return 0, ErrBeforeSupportedRange
}

// LeapSecondsPOSIX returns the integer number of leap seconds accumulated
// (relative to 1970-01-01) as of the given POSIX time. Requires posix to be
// on or after the table's first entry (1972-01-01 for Default()), except
// that posix 0 (the epoch itself) returns 0 with no error.
func (t *Table) LeapSecondsPOSIX(posix int64) (int32, error) {
	if posix == 0 {
		return 0, nil
	}
	if len(t.startPOSIX) == 0 {
		return 0, ErrBefore1972
	}
	last := len(t.startPOSIX) - 1
	if posix > t.startPOSIX[last] {
		return t.leap[last], nil
	}
	if posix < t.startPOSIX[0] {
		return 0, ErrBefore1972
	}
	i := sort.Search(len(t.startPOSIX), func(i int) bool { return t.startPOSIX[i] > posix }) - 1
	return t.leap[i], nil
}

// LeapSecondsUTC returns the integer number of leap seconds accumulated
// (relative to 1970-01-01) as of the given UTC time (POSIX seconds already
// adjusted for leap seconds). Requires utc to be on or after the table's
// first UTC entry, except that utc 0 returns 0 with no error.
func (t *Table) LeapSecondsUTC(utc int64) (int32, error) {
	if utc == 0 {
		return 0, nil
	}
	if len(t.startUTC) == 0 {
		return 0, ErrBefore1972
	}
	last := len(t.startUTC) - 1
	if utc >= t.startUTC[last] {
		return t.leap[last], nil
	}
	if utc < t.startUTC[0] {
		return 0, ErrBefore1972
	}
	i := sort.Search(len(t.startUTC), func(i int) bool { return t.startUTC[i] > utc }) - 1
	return t.leap[i], nil
}

// IsLeapSecond reports whether the given UTC POSIX-scale time falls exactly
// on an inserted leap second, that is on a row's UTC start: the value an
// inserted 23:59:60 shares with the midnight that follows it.
func (t *Table) IsLeapSecond(utc int64) (bool, error) {
	if len(t.startUTC) == 0 {
		return false, ErrBefore1972
	}
	last := len(t.startUTC) - 1
	if utc == 0 || utc > t.startUTC[last] {
		return false, nil
	}
	if utc < t.startUTC[0] {
		return false, ErrBefore1972
	}
	i := sort.Search(len(t.startUTC), func(i int) bool { return t.startUTC[i] > utc+1 }) - 1
	return t.startUTC[i] == utc, nil
}

// PosixToUTC converts a POSIX timestamp to UTC-scale seconds (POSIX plus
// accumulated leap seconds).
func (t *Table) PosixToUTC(posix int64) (int64, error) {
	leap, err := t.LeapSecondsPOSIX(posix)
	if err != nil {
		return 0, err
	}
	return posix + int64(leap), nil
}

// UTCToPosix converts UTC-scale seconds back to a POSIX timestamp.
func (t *Table) UTCToPosix(utc int64) (int64, error) {
	leap, err := t.LeapSecondsUTC(utc)
	if err != nil {
		return 0, err
	}
	return utc - int64(leap), nil
}

// gpsEpochLeap is the leap-second count (relative to 1970, as in the leap
// column) already in effect at the GPS epoch (1980-01-06T00:00:00 UTC).
const gpsEpochLeap = 11

// UTCToGPS converts UTC-scale seconds to GPS-scale seconds, counted from the
// same 1970-01-01 origin as POSIX time (1980-01-06T00:00:00 GPS is
// 315964800). The UTC scale already counts every leap second and GPS runs
// continuously without stepping, so the two differ by the constant
// gpsEpochLeap.
func (t *Table) UTCToGPS(utc int64) (int64, error) {
	return utc - gpsEpochLeap, nil
}

// GPSToUTC converts GPS-scale seconds back to UTC-scale seconds; it is the
// inverse of UTCToGPS.
func (t *Table) GPSToUTC(gps int64) (int64, error) {
	return gps + gpsEpochLeap, nil
}
