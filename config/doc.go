// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads the courier command configuration.
//
// Settings are layered, later layers overriding earlier ones:
//
//  1. the defaults returned by Default;
//  2. an optional YAML file;
//  3. environment variables named by the upper-cased key path with
//     dots replaced by underscores and a COURIER_ prefix, for example
//     COURIER_LOG_LEVEL or COURIER_TRANSPORT_DIAL_TIMEOUT.
//
// An optional dotenv file is loaded into the environment first. It
// never overrides variables that are already set.
//
// Durations may be written as Go duration strings ("30s") or as
// integer nanoseconds. Dump writes the latter.
package config
