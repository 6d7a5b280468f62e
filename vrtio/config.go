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

// Package vrtio implements the two-thread multicast receive pipeline that
// turns a UDP stream of VRT packets (naked or VRL-framed) into listener
// callbacks, with discontinuity detection and an initial-context state
// machine (spec.md §4.6, §5, §6.5).
package vrtio

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config configures a Reader, in the same "plain struct read from YAML,
// validated once" shape as fbclock/daemon.Config.
type Config struct {
	// Multicast address to join, e.g. "239.1.1.1:4991".
	Address string `yaml:"address"`
	// Interface to join the multicast group on; empty uses the system
	// default route.
	Interface string `yaml:"interface"`
	// QueueSize bounds the packet queue between the socket goroutine and
	// the dispatch goroutine (spec.md §4.6 default 2500).
	QueueSize int `yaml:"queue_size"`
	// PurgeOnFull enables dropping 25% of the queue on overflow instead of
	// blocking the socket goroutine (spec.md §4.6).
	PurgeOnFull bool `yaml:"purge_on_full"`
	// InitialContextTimeout bounds how long the Collecting state waits
	// before giving up (spec.md §4.6.1).
	InitialContextTimeout time.Duration `yaml:"initial_context_timeout"`
	// ReadTimeout is the socket goroutine's recv poll interval (spec.md
	// §4.6, fixed at 100ms there; configurable here for tests).
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// DSCP, if non-zero, is the traffic-class codepoint applied to the
	// socket so the receiver's own multicast membership traffic gets the
	// same network priority as the data it's joining to read.
	DSCP int `yaml:"dscp"`
}

// DefaultQueueSize is spec.md §4.6's default bounded-queue capacity.
const DefaultQueueSize = 2500

// DefaultReadTimeout is spec.md §4.6's socket recv poll interval.
const DefaultReadTimeout = 100 * time.Millisecond

// EvalAndValidate fills in defaults and rejects an unusable configuration,
// matching fbclock/daemon.Config.EvalAndValidate's validate-after-load
// idiom.
func (c *Config) EvalAndValidate() error {
	if c.Address == "" {
		return fmt.Errorf("bad config: 'address' is required")
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.InitialContextTimeout < 0 {
		return fmt.Errorf("bad config: 'initial_context_timeout' must not be negative")
	}
	return nil
}

// ReadConfig reads and validates a Config from a YAML file at path,
// grounded on fbclock/daemon.ReadConfig's read-then-UnmarshalStrict-then-
// validate sequence.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	c := &Config{}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := c.EvalAndValidate(); err != nil {
		return nil, err
	}
	return c, nil
}
