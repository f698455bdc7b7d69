// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package logging provides a zerolog event handler for a courier
// Executor, and builds zerolog loggers from configuration.
//
//	logger, err := logging.New(logging.Config{Level: "debug"})
//	...
//	handlers := &courier.HandlerGroup{}
//	logging.Install(handlers, logger)
//	x := &courier.Executor{Handlers: handlers}
package logging
