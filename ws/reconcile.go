package ws

import (
	"github.com/mqy/minisocial/api"
)

type Outcome int

const (
	Ignored Outcome = iota
	Duplicate
	Replaced
	Appended
)

func (o Outcome) String() string {
	switch o {
	case Duplicate:
		return "duplicate"
	case Replaced:
		return "replaced"
	case Appended:
		return "appended"
	}
	return "ignored"
}

// Result tells what Reconcile did. Index is the position of the affected
// entry, or -1. Replaced holds the temporary entry that was swapped out.
type Result struct {
	Outcome  Outcome
	Index    int
	Replaced *api.Message
}

// Reconcile merges ev into list and returns the new list. The input slice
// is never modified.
//
// An entry with the same server id makes the event a no-op, unless that
// entry is still temporary, in which case it is replaced. Otherwise the
// first temporary entry with the same sender, receiver and content is
// replaced in place. Otherwise the message is appended. Events that carry
// no message leave the list unchanged.
func Reconcile(list []api.Message, ev Event) ([]api.Message, Result) {
	if ev.Message == nil || (ev.Kind != EventNewMessage && ev.Kind != EventNewAttachment) {
		return list, Result{Outcome: Ignored, Index: -1}
	}
	msg := *ev.Message
	msg.IsTemporary = false
	msg.TempID = ""
	msg.PreviewURL = ""

	if msg.ID != 0 {
		for i := range list {
			if list[i].ID != msg.ID {
				continue
			}
			if !list[i].IsTemporary {
				return list, Result{Outcome: Duplicate, Index: i}
			}
			return replaceAt(list, i, msg)
		}
	}

	for i := range list {
		e := &list[i]
		if e.IsTemporary && e.Sender == msg.Sender && e.Receiver == msg.Receiver && e.Content == msg.Content {
			return replaceAt(list, i, msg)
		}
	}

	out := make([]api.Message, len(list), len(list)+1)
	copy(out, list)
	out = append(out, msg)
	return out, Result{Outcome: Appended, Index: len(out) - 1}
}

// ReplaceTemp puts msg where the temporary entry tempID was. When msg is
// already in the list, for example because its echo won the race, the
// temporary entry is dropped instead.
func ReplaceTemp(list []api.Message, tempID string, msg api.Message) ([]api.Message, Result) {
	msg.IsTemporary = false
	msg.TempID = ""
	msg.PreviewURL = ""

	tempIdx, idIdx := -1, -1
	for i := range list {
		if list[i].IsTemporary && list[i].TempID == tempID {
			tempIdx = i
		} else if msg.ID != 0 && !list[i].IsTemporary && list[i].ID == msg.ID {
			idIdx = i
		}
	}

	switch {
	case tempIdx >= 0 && idIdx >= 0:
		replaced := list[tempIdx]
		out, _ := RemoveTemp(list, tempID)
		return out, Result{Outcome: Duplicate, Index: -1, Replaced: &replaced}
	case tempIdx >= 0:
		return replaceAt(list, tempIdx, msg)
	case idIdx >= 0:
		return list, Result{Outcome: Duplicate, Index: idIdx}
	}

	out := make([]api.Message, len(list), len(list)+1)
	copy(out, list)
	out = append(out, msg)
	return out, Result{Outcome: Appended, Index: len(out) - 1}
}

// RemoveTemp drops the temporary entry tempID. It returns the removed
// entry, or nil when there was none.
func RemoveTemp(list []api.Message, tempID string) ([]api.Message, *api.Message) {
	for i := range list {
		if list[i].IsTemporary && list[i].TempID == tempID {
			removed := list[i]
			out := make([]api.Message, 0, len(list)-1)
			out = append(out, list[:i]...)
			out = append(out, list[i+1:]...)
			return out, &removed
		}
	}
	return list, nil
}

func replaceAt(list []api.Message, i int, msg api.Message) ([]api.Message, Result) {
	replaced := list[i]
	out := make([]api.Message, len(list))
	copy(out, list)
	out[i] = msg
	return out, Result{Outcome: Replaced, Index: i, Replaced: &replaced}
}
