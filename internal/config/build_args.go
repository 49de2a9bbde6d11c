package config

import "fmt"

// Variables in this block are overridden via ldflags at build time.
var (
	ModuleName = "go-sweeper"
	Commit     = "unknown"
	BuildDate  = "unknown"
)

func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}
