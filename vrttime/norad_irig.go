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

package vrttime

import (
	"fmt"
)

// NORADConvention selects whether NORAD second-of-year counting includes a
// leap second that falls mid-year.
type NORADConvention uint8

// NORAD counting conventions.
const (
	NORADCountMidYearLeap NORADConvention = iota
	NORADSkipMidYearLeap
)

// ToNORAD converts the timestamp to NORAD time: seconds since the start of
// its UTC year. The year is resolved from the timestamp's own UTC value and
// returned as the third result; no +-14 day wrap window is applied.
func (t Timestamp) ToNORAD(conv NORADConvention) (uint32, uint64, int, error) {
	utc, picos, err := t.ToUTC()
	if err != nil {
		return 0, 0, 0, err
	}
	tbl := t.leapTable()
	year, err := yearForUTC(tbl, int64(utc))
	if err != nil {
		return 0, 0, 0, err
	}
	yearStartUTC, err := startOfYearUTC(tbl, year)
	if err != nil {
		return 0, 0, 0, err
	}
	secOfYear := int64(utc) - yearStartUTC
	if conv == NORADSkipMidYearLeap {
		for posix := yearStartUTC + 1; posix < int64(utc); posix++ {
			isLeap, lerr := tbl.IsLeapSecond(posix)
			if lerr == nil && isLeap {
				secOfYear--
			}
		}
	}
	if secOfYear < 0 {
		return 0, 0, 0, fmt.Errorf("vrttime: NORAD second-of-year computed negative (%d)", secOfYear)
	}
	return uint32(secOfYear), picos, year, nil
}

func yearForUTC(tbl interface {
	PosixToUTC(int64) (int64, error)
}, utc int64) (int, error) {
	year := 1972
	for {
		start, err := startOfYearUTCRaw(tbl, year+1)
		if err != nil {
			break
		}
		if utc < start {
			return year, nil
		}
		year++
		if year > 2106 {
			return 0, fmt.Errorf("vrttime: year lookup exceeds 2106 support horizon")
		}
	}
	return year, nil
}

func startOfYearUTCRaw(tbl interface {
	PosixToUTC(int64) (int64, error)
}, year int) (int64, error) {
	return tbl.PosixToUTC(ymdToPOSIXDay(year, 1, 1) * 86400)
}

func startOfYearUTC(tbl interface {
	PosixToUTC(int64) (int64, error)
}, year int) (int64, error) {
	return startOfYearUTCRaw(tbl, year)
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

var daysBeforeMonth = [13]int{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

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

// IRIGTime is a decomposed IRIG B/G time-of-year code.
type IRIGTime struct {
	DayOfYear int
	Hour      int
	Minute    int
	Second    int // may be 60 only as a valid leap-second indicator at 23:59:60
	Picos     uint64
}

// ToIRIG decomposes the timestamp into IRIG day-of-year/hour/minute/second
// fields. A UTC timestamp landing exactly on a leap-second insertion
// produces Second == 60; any other value of 60 is rejected.
func (t Timestamp) ToIRIG() (IRIGTime, error) {
	utc, picos, err := t.ToUTC()
	if err != nil {
		return IRIGTime{}, err
	}
	tbl := t.leapTable()
	year, err := yearForUTC(tbl, int64(utc))
	if err != nil {
		return IRIGTime{}, err
	}
	yearStart, err := startOfYearUTC(tbl, year)
	if err != nil {
		return IRIGTime{}, err
	}
	secOfYear := int64(utc) - yearStart

	isLeap, _ := tbl.IsLeapSecond(int64(utc))
	day := int(secOfYear / 86400)
	rem := secOfYear % 86400
	hour := int(rem / 3600)
	rem %= 3600
	minute := int(rem / 60)
	second := int(rem % 60)
	if isLeap {
		second = 60
		minute--
		if minute < 0 {
			minute = 59
			hour--
			if hour < 0 {
				hour = 23
				day--
				if day < 0 { // a 1 Jan insertion: last day of the previous year
					day = 364
					if isLeapYear(year - 1) {
						day = 365
					}
				}
			}
		}
	}
	return IRIGTime{DayOfYear: day + 1, Hour: hour, Minute: minute, Second: second, Picos: picos}, nil
}
