package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.3.0
	Commit    = "none"                          // ex: ef56789
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2026-08-11T18:42:00Z
	GoVersion = runtime.Version()               // go version
)
