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

package bytefield

import "errors"

var (
	errInvalidBoolNull  = errors.New("bytefield: value is not a valid strict bool-null octet")
	errMalformedUTF8    = errors.New("bytefield: malformed UTF-8 sequence")
	errUnrepresentable  = errors.New("bytefield: code point has no modified-UTF-8 representation")
	errBufferTooShort   = errors.New("bytefield: buffer too short for requested field")
	errBitCountTooLarge = errors.New("bytefield: bit count exceeds field width")
)
