package handler

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrUnsupportedCapability is returned by a delegate that does not expose
// the requested capability. The probe moves on to the next candidate.
var ErrUnsupportedCapability = errors.New("capability not supported")

// TempbanRequest carries everything a delegated temporary ban needs
type TempbanRequest struct {
	GroupID   int64
	UserID    int64
	Duration  time.Duration
	ExpiresAt time.Time
	Reason    string
}

// Delegate is an external moderation component that may take over issuing
// a temporary ban. Persistent reports whether the delegate schedules its
// own reversal; when it does, the caller must not record one itself.
type Delegate interface {
	Invoke(ctx context.Context, capability string, req TempbanRequest) error
	Persistent() bool
}

// tempbanCapabilities are probed in order. The first capability a delegate
// accepts wins; ErrUnsupportedCapability falls through to the next.
var tempbanCapabilities = []string{
	"_tempban",
	"tempban_user",
	"tempban_member",
	"tempban",
}

// DelegateRegistry maps delegate names to registered delegates. Lookup
// happens at call time so a delegate registered after startup is still
// found.
type DelegateRegistry struct {
	mu        sync.RWMutex
	delegates map[string]Delegate
}

// NewDelegateRegistry creates an empty registry
func NewDelegateRegistry() *DelegateRegistry {
	return &DelegateRegistry{delegates: make(map[string]Delegate)}
}

// Register binds a delegate under a name, replacing any prior binding
func (r *DelegateRegistry) Register(name string, d Delegate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delegates[name] = d
}

// Unregister removes a delegate binding
func (r *DelegateRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.delegates, name)
}

// Lookup returns the delegate bound under a name, or nil
func (r *DelegateRegistry) Lookup(name string) Delegate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.delegates[name]
}

// ProbeTempban walks the capability candidates on a delegate. It returns
// (true, nil) when a capability handled the request, (false, nil) when the
// delegate supports none of them, and (false, err) when a supported
// capability failed.
func ProbeTempban(ctx context.Context, d Delegate, req TempbanRequest) (bool, error) {
	if d == nil {
		return false, nil
	}
	for _, capability := range tempbanCapabilities {
		err := d.Invoke(ctx, capability, req)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, ErrUnsupportedCapability) {
			continue
		}
		return false, err
	}
	return false, nil
}
