package notifyfakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/pgportal/notify"
)

var _ notify.Notifier = (*Recorder)(nil)

// Recorder keeps every notification in memory.
type Recorder struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *Recorder) Notifications() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.notes...)
}
