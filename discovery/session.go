package discovery

import "context"

// Session is one open listing view in a scriptable browser.
type Session interface {
	// ScrollToBottom scrolls the view to the end of the loaded content.
	ScrollToBottom(ctx context.Context) error
	// CurrentExtent returns the scrollable height of the loaded content.
	CurrentExtent(ctx context.Context) (int64, error)
	// LastVisibleItemDate returns the text of the last loaded date label,
	// or "" when no label is present.
	LastVisibleItemDate(ctx context.Context) (string, error)
	// Snapshot returns the rendered document markup.
	Snapshot(ctx context.Context) (string, error)
	// Close releases the session. It is safe to call more than once.
	Close() error
}

// Browser opens listing sessions.
type Browser interface {
	Open(ctx context.Context, address string) (Session, error)
}
