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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMonotonic(t *testing.T) {
	tbl := Default()
	for i := 1; i < len(tbl.leap); i++ {
		require.GreaterOrEqual(t, tbl.leap[i], tbl.leap[i-1])
		require.Greater(t, tbl.startPOSIX[i], tbl.startPOSIX[i-1])
	}
}

func TestLeapSecondsPOSIXKnownDates(t *testing.T) {
	tbl := Default()

	// 1972-01-01: first row, 2 leap seconds since 1970.
	leap, err := tbl.LeapSecondsPOSIX(ymdToPOSIXDay(1972, 1, 1) * 86400)
	require.NoError(t, err)
	require.Equal(t, int32(2), leap)

	// well after the last entry: flat at the final accumulated count.
	leap, err = tbl.LeapSecondsPOSIX(ymdToPOSIXDay(2020, 1, 1) * 86400)
	require.NoError(t, err)
	require.Equal(t, int32(29), leap)
}

func TestLeapSecondsPOSIXBefore1972(t *testing.T) {
	tbl := Default()
	_, err := tbl.LeapSecondsPOSIX(ymdToPOSIXDay(1971, 1, 1) * 86400)
	require.ErrorIs(t, err, ErrBefore1972)
}

func TestPosixUTCRoundTrip(t *testing.T) {
	tbl := Default()
	posix := ymdToPOSIXDay(2016, 3, 1) * 86400
	utc, err := tbl.PosixToUTC(posix)
	require.NoError(t, err)
	back, err := tbl.UTCToPosix(utc)
	require.NoError(t, err)
	require.Equal(t, posix, back)
}

func TestIsLeapSecond(t *testing.T) {
	tbl := Default()
	utc, err := tbl.PosixToUTC(ymdToPOSIXDay(2015, 7, 1) * 86400)
	require.NoError(t, err)
	isLeap, err := tbl.IsLeapSecond(utc)
	require.NoError(t, err)
	require.True(t, isLeap)
}

func TestUTCGPSRoundTrip(t *testing.T) {
	tbl := Default()
	utc, err := tbl.PosixToUTC(ymdToPOSIXDay(2018, 6, 15) * 86400)
	require.NoError(t, err)
	gps, err := tbl.UTCToGPS(utc)
	require.NoError(t, err)
	back, err := tbl.GPSToUTC(gps)
	require.NoError(t, err)
	require.Equal(t, utc, back)
}

func TestLeapSecondsMidasPre1972(t *testing.T) {
	tbl := Default()
	// 1965-01-01 Midas seconds: the pre-1972 row starting that day gives
	// TAI-UTC 3.54013 s, reported less the 8.000082 s baseline.
	wsec := float64(ymdToPOSIXDay(1965, 1, 1)*86400 + midasToPOSIX)
	v, err := tbl.LeapSecondsMidas(wsec, 0)
	require.NoError(t, err)
	require.InDelta(t, -4.46, v, 0.2)
}

func TestLoadParsesBulletinFormat(t *testing.T) {
	data := strings.Join([]string{
		" 1972 JAN  1 =JD 2441317.5  TAI-UTC=  10.0       S + (MJD - 41317.) X 0.0      S",
		" 1972 JUL  1 =JD 2441499.5  TAI-UTC=  11.0       S + (MJD - 41317.) X 0.0      S",
		" 1973 JAN  1 =JD 2441683.5  TAI-UTC=  12.0       S + (MJD - 41317.) X 0.0      S",
	}, "\n")
	tbl, err := Load(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, tbl.leap, 3)
	require.Equal(t, int32(2), tbl.leap[0])
	require.Equal(t, int32(4), tbl.leap[2])
}

func TestLoadRejectsMalformed(t *testing.T) {
	_, err := Load(strings.NewReader("not a bulletin file\n"))
	require.Error(t, err)
}
