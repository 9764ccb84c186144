// Package buildinfo exposes build-time metadata injected via ldflags:
//
//	go build -ldflags "-X .../internal/buildinfo.Version=1.2.0 \
//	                   -X .../internal/buildinfo.Date=2025-06-01 \
//	                   -X .../internal/buildinfo.Commit=abc1234"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	Version = "N/A"
	Date    = "N/A"
	Commit  = "N/A"
)

// PrintBuildData writes the build stamp to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", Date)
	fmt.Fprintf(w, "Build commit: %s\n", Commit)
}
