package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the release version of creditpulse
	Version = "1.0.0"

	// DataFormatVersion tracks the export column layout. Bump it whenever
	// exporter.RecordHeaders changes.
	DataFormatVersion = "v1"

	// APIVersion tracks the HTTP and WebSocket payload contracts.
	APIVersion = "v1"
)

// Set through -ldflags "-X creditpulse/pkg/contracts.BuildTime=..." by build.go.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version    string `json:"version"`
	BuildTime  string `json:"build_time"`
	GitCommit  string `json:"git_commit"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	DataFormat string `json:"data_format"`
	APIVersion string `json:"api_version"`
}

// CurrentBuild returns the build information of this binary.
func CurrentBuild() BuildInfo {
	return BuildInfo{
		Version:    Version,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		DataFormat: DataFormatVersion,
		APIVersion: APIVersion,
	}
}

// String renders a one-line banner, e.g. "1.0.0 (abc1234, go1.24.3 linux/amd64)".
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (%s, %s %s)", b.Version, b.GitCommit, b.GoVersion, b.Platform)
}
