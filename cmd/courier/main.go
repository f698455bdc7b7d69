// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command courier sends HTTP requests and classifies their outcome.
package main

import (
	"os"

	"github.com/gogama/courier/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
