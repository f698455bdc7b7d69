// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics records Prometheus metrics for the requests sent by a
// courier Executor.
//
// Every attempt increments a counter labelled with the method, response
// kind, failure code and HTTP status, and observes the elapsed time in
// a histogram. The metrics can be served by a Prometheus HTTP handler
// or, for short-lived processes, written to a node exporter textfile
// with WriteTextfile.
package metrics
