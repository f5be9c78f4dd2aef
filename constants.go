package reactor

import "github.com/ehrlich-b/go-reactor/internal/constants"

// Re-export constants for public API
const (
	DefaultEventCapacity = constants.DefaultEventCapacity
	MaxSources           = constants.MaxSources
)
