// Package buildinfo exposes version metadata injected at link time:
//
//	go build -ldflags "-X .../internal/buildinfo.Version=v1.2.3 \
//	  -X .../internal/buildinfo.Date=2026-09-01 \
//	  -X .../internal/buildinfo.Commit=abc1234"
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

// PrintBuildData writes the build metadata to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", Date)
	fmt.Fprintf(w, "Build commit: %s\n", Commit)
}
