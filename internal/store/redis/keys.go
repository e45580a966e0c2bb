package redis

const (
	// KeyPrefixRun is the prefix for run report keys
	KeyPrefixRun = "rewind:run:"
	// KeyRunList is the key for the list of recent run IDs, newest first
	KeyRunList = "rewind:runs"
)

// RunKey returns the Redis key for a run report by ID
func RunKey(id string) string {
	return KeyPrefixRun + id
}
