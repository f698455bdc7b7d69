// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package history keeps a record of executed requests and their
// outcomes in a SQLite database.
//
// The database is opened with the pure Go modernc.org/sqlite driver, so
// no C toolchain is needed. Use the path ":memory:" for a throwaway
// store.
package history
