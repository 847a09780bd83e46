// Package version holds build metadata set through -ldflags, e.g.
//
//	go build -ldflags "-X inventory-api/internal/version.Version=v1.2.0"
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
