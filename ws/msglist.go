package ws

import (
	"sort"
	"sync"

	"github.com/mqy/minisocial/api"
)

// messageList is the rendered message list of a messenger together with
// the visible error and the preview releasers of temporary entries.
type messageList struct {
	sync.RWMutex
	messages []api.Message
	previews map[string]func()
	errText  string
	onChange func()
}

func newMessageList() *messageList {
	return &messageList{previews: make(map[string]func())}
}

func (l *messageList) snapshot() []api.Message {
	l.RLock()
	defer l.RUnlock()
	out := make([]api.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *messageList) err() string {
	l.RLock()
	defer l.RUnlock()
	return l.errText
}

func (l *messageList) setErr(text string) {
	l.Lock()
	l.errText = text
	l.Unlock()
	l.changed()
}

func (l *messageList) setListener(fn func()) {
	l.Lock()
	l.onChange = fn
	l.Unlock()
}

func (l *messageList) changed() {
	l.RLock()
	fn := l.onChange
	l.RUnlock()
	if fn != nil {
		fn()
	}
}

// apply reconciles one event into the list.
func (l *messageList) apply(ev Event) Result {
	l.Lock()
	var res Result
	l.messages, res = Reconcile(l.messages, ev)
	release := l.takePreview(res.Replaced)
	l.Unlock()

	reconcileTotal.WithLabelValues(res.Outcome.String()).Inc()
	if release != nil {
		release()
	}
	if res.Outcome == Replaced || res.Outcome == Appended {
		l.changed()
	}
	return res
}

// addTemp appends an optimistic entry. release, if set, frees its preview.
func (l *messageList) addTemp(m api.Message, release func()) {
	l.Lock()
	l.messages = append(l.messages, m)
	if release != nil {
		l.previews[m.TempID] = release
	}
	l.Unlock()
	l.changed()
}

func (l *messageList) replaceTemp(tempID string, m api.Message) Result {
	l.Lock()
	var res Result
	l.messages, res = ReplaceTemp(l.messages, tempID, m)
	release := l.previews[tempID]
	delete(l.previews, tempID)
	l.Unlock()

	reconcileTotal.WithLabelValues(res.Outcome.String()).Inc()
	if release != nil {
		release()
	}
	l.changed()
	return res
}

func (l *messageList) removeTemp(tempID string) {
	l.Lock()
	l.messages, _ = RemoveTemp(l.messages, tempID)
	release := l.previews[tempID]
	delete(l.previews, tempID)
	l.Unlock()

	if release != nil {
		release()
	}
	l.changed()
}

// merge reconciles a server listing, oldest first, into the list.
func (l *messageList) merge(list []api.Message) {
	sorted := make([]api.Message, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var releases []func()
	l.Lock()
	for i := range sorted {
		var res Result
		l.messages, res = Reconcile(l.messages, Event{Kind: EventNewMessage, Message: &sorted[i]})
		reconcileTotal.WithLabelValues(res.Outcome.String()).Inc()
		if release := l.takePreview(res.Replaced); release != nil {
			releases = append(releases, release)
		}
	}
	l.Unlock()

	for _, release := range releases {
		release()
	}
	l.changed()
}

// reset drops every entry and releases all previews.
func (l *messageList) reset() {
	l.Lock()
	l.messages = nil
	l.errText = ""
	previews := l.previews
	l.previews = make(map[string]func())
	l.Unlock()

	for _, release := range previews {
		release()
	}
}

// takePreview must be called with the lock held.
func (l *messageList) takePreview(replaced *api.Message) func() {
	if replaced == nil || !replaced.IsTemporary {
		return nil
	}
	release := l.previews[replaced.TempID]
	delete(l.previews, replaced.TempID)
	return release
}
