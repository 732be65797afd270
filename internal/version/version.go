// Package version provides build and version information for Treasure Land.
package version

// Version is the current release version of Treasure Land.
// This can be overridden at build time using:
//
//	go build -ldflags "-X github.com/AaronLay10/TreasureLand/internal/version.Version=x.y.z"
var Version = "1.0.0"
