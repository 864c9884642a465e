package driven

import "context"

// StorageLocator finds storage roots without being told where they are.
type StorageLocator interface {
	// Locate returns candidate roots that exist right now.
	Locate(ctx context.Context) ([]string, error)
}

// WatchEvent reports a change beneath a watched root. Bursts of filesystem
// activity are coalesced into one event per root.
type WatchEvent struct {
	// Root is the storage root the change happened under.
	Root string

	// Paths are the changed paths collected since the previous event.
	Paths []string
}

// RootWatcher reports changes beneath storage roots.
type RootWatcher interface {
	// Watch starts watching roots. The channel is closed when ctx is
	// cancelled or the watcher is closed.
	Watch(ctx context.Context, roots []string) (<-chan WatchEvent, error)

	// Close stops watching and releases resources.
	Close() error
}
