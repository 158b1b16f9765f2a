package config

import (
	"time"

	"creditpulse/pkg/contracts"
)

// Application constants
const (
	// Application Info
	AppName    = "creditpulse"
	AppTitle   = "Credit Portfolio Pulse"
	AppVersion = contracts.Version

	// Upload limits
	DefaultUploadMaxBytes = 20 << 20 // 20MB

	// Cache Settings
	DefaultCacheTTL = 10 * time.Minute

	// Pagination of the detail table
	DefaultPageSize = 10
)

// PageSizes lists the page sizes offered by the detail table.
var PageSizes = []int{5, 10, 25, 50}
