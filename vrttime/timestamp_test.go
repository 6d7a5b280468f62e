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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RedhawkSDR/VITA49-sub001/leapseconds"
)

func TestPOSIXUTCRoundTrip(t *testing.T) {
	tbl := leapseconds.Default()
	posixSeconds := uint32(ymdToPOSIXDay(2020, 6, 15) * 86400)
	ts := FromPOSIX(posixSeconds, 123456, tbl)

	utc, picos, err := ts.ToUTC()
	require.NoError(t, err)
	require.Equal(t, uint64(123456), picos)

	back := Timestamp{Epoch: UTC, Seconds: utc, Picos: picos, Leap: tbl}
	posix2, _, err := back.ToPOSIX()
	require.NoError(t, err)
	require.Equal(t, posixSeconds, posix2)
}

func TestGPSUTCIdentity(t *testing.T) {
	tbl := leapseconds.Default()
	posixSeconds := uint32(ymdToPOSIXDay(2019, 3, 1) * 86400)
	ts := FromPOSIX(posixSeconds, 0, tbl)

	gps, picos, err := ts.ToGPS()
	require.NoError(t, err)

	back := Timestamp{Epoch: GPS, Seconds: gps, Picos: picos, Leap: tbl}
	posix2, _, err := back.ToPOSIX()
	require.NoError(t, err)
	require.Equal(t, posixSeconds, posix2)
}

func TestLeapSecondScenario(t *testing.T) {
	tbl := leapseconds.Default()
	// 2016-12-31 is a leap second insertion date (2017-01-01, TAI-UTC=37).
	posix := uint32(ymdToPOSIXDay(2017, 1, 1) * 86400)
	ts := FromPOSIX(posix-1, 0, tbl) // last POSIX second before the rollover
	utc, _, err := ts.ToUTC()
	require.NoError(t, err)

	nextSecond := FromPOSIX(posix, 0, tbl)
	nextUTC, _, err := nextSecond.ToUTC()
	require.NoError(t, err)

	// the 2017-01-01 start value is the one reported as the leap second
	// (23:59:60 and the following midnight share it), and the UTC scale
	// advances by two across the insertion.
	isLeap, err := tbl.IsLeapSecond(int64(nextUTC))
	require.NoError(t, err)
	require.True(t, isLeap)
	require.Equal(t, utc+2, nextUTC)
}

func TestStringFormat(t *testing.T) {
	tbl := leapseconds.Default()
	ts := Timestamp{Epoch: POSIX, Seconds: uint32(ymdToPOSIXDay(2024, 1, 2)*86400 + 3*3600 + 4*60 + 5), Leap: tbl}
	ts.Epoch = UTC
	utcSeconds, _, err := FromPOSIX(ts.Seconds, 0, tbl).ToUTC()
	require.NoError(t, err)
	ts.Seconds = utcSeconds
	require.Contains(t, ts.String(), "(UTC)")
	require.Contains(t, ts.String(), "2024-01-02T03:04:05")
}

func TestIRIGLeapSecond(t *testing.T) {
	tbl := leapseconds.Default()
	posix := ymdToPOSIXDay(2017, 1, 1) * 86400
	utc, err := tbl.PosixToUTC(posix) // the 2017-01-01 start value, i.e. 2016-12-31T23:59:60
	require.NoError(t, err)
	ts := Timestamp{Epoch: UTC, Seconds: uint32(utc), Leap: tbl}
	irig, err := ts.ToIRIG()
	require.NoError(t, err)
	require.Equal(t, 60, irig.Second)
	require.Equal(t, 23, irig.Hour)
	require.Equal(t, 59, irig.Minute)
}
