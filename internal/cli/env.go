// SPDX-License-Identifier: EPL-2.0

// Package cli implements the audload command line.
package cli

import (
	"io"
	"os"
)

// Environment variables read as flag defaults. A .env file in the working
// directory may set them.
const (
	EnvConfig   = "AUDLOAD_CONFIG"
	EnvFileRoot = "AUDLOAD_FILE_ROOT"
	EnvFileList = "AUDLOAD_FILE_LIST"
)

// Env holds the process dependencies of the commands so tests can run them
// in isolation.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
}

// DefaultEnv wires the process streams and environment.
func DefaultEnv() *Env {
	return &Env{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getenv: os.Getenv,
	}
}
