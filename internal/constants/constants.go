package constants

// Default configuration constants
const (
	// DefaultEventCapacity is the size of the reusable selector event buffer
	// held by each reactor. One turn delivers at most this many events.
	DefaultEventCapacity = 1024

	// MaxSources bounds the number of concurrently registered I/O sources.
	// The high bits of the token word are reserved for selector token space,
	// so only a sixteenth of the word range is usable for source keys.
	MaxSources = int(^uint(0) >> 4)
)
