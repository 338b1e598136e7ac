// Package version holds build metadata injected with -ldflags.
package version

import "runtime"

var (
	AppName   = "Whisperling"
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
	GoVersion = runtime.Version()
)
