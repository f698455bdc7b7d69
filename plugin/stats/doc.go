// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package stats accumulates latency percentiles and outcome counts over
// many requests, for example when the same request is sent repeatedly
// to measure a service.
package stats
