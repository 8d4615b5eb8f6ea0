// Package contacts keeps the contact list of the current user together
// with each contact's friendship status, and the friend request actions.
// Messaging is only allowed with accepted friends.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/mqy/minisocial/api"
)

var ErrNoPendingRequest = errors.New("no pending request found")

type Status int

const (
	None Status = iota
	PendingSent
	PendingReceived
	Accepted
)

func (s Status) String() string {
	switch s {
	case PendingSent:
		return "pending_sent"
	case PendingReceived:
		return "pending_received"
	case Accepted:
		return "accepted"
	}
	return "none"
}

// StatusOf derives the status from the summary embedded in user listings.
// A rejected request counts as none, so a new one can be sent.
func StatusOf(ref *api.FriendshipRef) Status {
	if ref == nil {
		return None
	}
	switch ref.Status {
	case "accepted":
		return Accepted
	case "pending":
		if ref.IsSender {
			return PendingSent
		}
		return PendingReceived
	}
	return None
}

// Backend is the REST side of the contact list.
type Backend interface {
	Users(ctx context.Context) ([]api.User, error)
	Friendships(ctx context.Context, q api.FriendshipQuery) ([]api.Friendship, error)
	CreateFriendship(ctx context.Context, receiver int64) (*api.Friendship, error)
	AcceptFriendship(ctx context.Context, id int64) error
	RejectFriendship(ctx context.Context, id int64) error
}

var _ Backend = (*api.Client)(nil)

type Contact struct {
	api.User
	Status Status
}

// Book is the contact list of user me.
type Book struct {
	sync.RWMutex

	backend Backend
	me      int64

	contacts []Contact
	index    map[int64]int
}

func NewBook(backend Backend, me int64) *Book {
	return &Book{
		backend: backend,
		me:      me,
		index:   make(map[int64]int),
	}
}

// Load fetches the users, most recent interaction first.
func (b *Book) Load(ctx context.Context) error {
	users, err := b.backend.Users(ctx)
	if err != nil {
		return err
	}

	contacts := make([]Contact, 0, len(users))
	for _, u := range users {
		if u.ID == b.me {
			continue
		}
		contacts = append(contacts, Contact{User: u, Status: StatusOf(u.FriendshipStatus)})
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		a, c := contacts[i].LastInteraction, contacts[j].LastInteraction
		if a == nil || c == nil {
			return a != nil && c == nil
		}
		return a.After(*c)
	})

	index := make(map[int64]int, len(contacts))
	for i, c := range contacts {
		index[c.ID] = i
	}

	b.Lock()
	b.contacts = contacts
	b.index = index
	b.Unlock()

	glog.V(5).Infof("contacts: loaded %d users", len(contacts))
	return nil
}

func (b *Book) Contacts() []Contact {
	b.RLock()
	defer b.RUnlock()
	out := make([]Contact, len(b.contacts))
	copy(out, b.contacts)
	return out
}

// Search returns the contacts whose username contains q, ignoring case.
func (b *Book) Search(q string) []Contact {
	q = strings.ToLower(strings.TrimSpace(q))
	var out []Contact
	for _, c := range b.Contacts() {
		if strings.Contains(strings.ToLower(c.Username), q) {
			out = append(out, c)
		}
	}
	return out
}

func (b *Book) Lookup(userID int64) (Contact, bool) {
	b.RLock()
	defer b.RUnlock()
	i, ok := b.index[userID]
	if !ok {
		return Contact{}, false
	}
	return b.contacts[i], true
}

func (b *Book) ByUsername(username string) (Contact, bool) {
	b.RLock()
	defer b.RUnlock()
	for _, c := range b.contacts {
		if c.Username == username {
			return c, true
		}
	}
	return Contact{}, false
}

// CanMessage reports whether userID is an accepted friend.
func (b *Book) CanMessage(userID int64) bool {
	c, ok := b.Lookup(userID)
	return ok && c.Status == Accepted
}

// SendRequest sends a friend request to userID.
func (b *Book) SendRequest(ctx context.Context, userID int64) error {
	if _, err := b.backend.CreateFriendship(ctx, userID); err != nil {
		return err
	}
	b.setStatus(userID, PendingSent)
	return nil
}

// Accept accepts the pending request userID sent to us.
func (b *Book) Accept(ctx context.Context, userID int64) error {
	id, err := b.pendingFrom(ctx, userID)
	if err != nil {
		return err
	}
	if err := b.backend.AcceptFriendship(ctx, id); err != nil {
		return err
	}
	b.setStatus(userID, Accepted)
	return nil
}

// Reject rejects the pending request userID sent to us.
func (b *Book) Reject(ctx context.Context, userID int64) error {
	id, err := b.pendingFrom(ctx, userID)
	if err != nil {
		return err
	}
	if err := b.backend.RejectFriendship(ctx, id); err != nil {
		return err
	}
	b.setStatus(userID, None)
	return nil
}

func (b *Book) pendingFrom(ctx context.Context, userID int64) (int64, error) {
	list, err := b.backend.Friendships(ctx, api.FriendshipQuery{
		Receiver: b.me,
		Sender:   userID,
		Status:   "pending",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to look up friend request: %w", err)
	}
	if len(list) == 0 {
		return 0, ErrNoPendingRequest
	}
	return list[0].ID, nil
}

func (b *Book) setStatus(userID int64, s Status) {
	b.Lock()
	defer b.Unlock()
	if i, ok := b.index[userID]; ok {
		b.contacts[i].Status = s
	}
}
