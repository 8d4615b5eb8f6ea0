package contacts

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqy/minisocial/api"
	mock_contacts "github.com/mqy/minisocial/contacts/mock"
)

func at(min int) *time.Time {
	t := time.Date(2024, 5, 1, 12, min, 0, 0, time.UTC)
	return &t
}

var users = []api.User{
	{ID: 1, Username: "alice"},
	{ID: 2, Username: "bob", LastInteraction: at(1), FriendshipStatus: &api.FriendshipRef{Status: "accepted"}},
	{ID: 3, Username: "carol", FriendshipStatus: &api.FriendshipRef{Status: "pending", IsSender: false}},
	{ID: 4, Username: "dave", LastInteraction: at(5), FriendshipStatus: &api.FriendshipRef{Status: "pending", IsSender: true}},
	{ID: 5, Username: "Erin", FriendshipStatus: &api.FriendshipRef{Status: "rejected"}},
}

func loadedBook(t *testing.T, mockCtrl *gomock.Controller) (*Book, *mock_contacts.MockBackend) {
	backend := mock_contacts.NewMockBackend(mockCtrl)
	backend.EXPECT().Users(gomock.Any()).Return(users, nil)
	b := NewBook(backend, 1)
	require.NoError(t, b.Load(context.Background()))
	return b, backend
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, None, StatusOf(nil))
	assert.Equal(t, None, StatusOf(&api.FriendshipRef{Status: "rejected"}))
	assert.Equal(t, Accepted, StatusOf(&api.FriendshipRef{Status: "accepted", IsSender: true}))
	assert.Equal(t, PendingSent, StatusOf(&api.FriendshipRef{Status: "pending", IsSender: true}))
	assert.Equal(t, PendingReceived, StatusOf(&api.FriendshipRef{Status: "pending"}))
	assert.Equal(t, "pending_received", PendingReceived.String())
}

func TestLoad(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	b, _ := loadedBook(t, mockCtrl)

	var names []string
	for _, c := range b.Contacts() {
		names = append(names, c.Username)
	}
	assert.Equal(t, []string{"dave", "bob", "carol", "Erin"}, names, "self excluded, recent first")

	assert.True(t, b.CanMessage(2))
	for _, id := range []int64{1, 3, 4, 5, 42} {
		assert.False(t, b.CanMessage(id), "user %d", id)
	}

	c, ok := b.ByUsername("carol")
	require.True(t, ok)
	assert.Equal(t, PendingReceived, c.Status)

	assert.Len(t, b.Search("ERI"), 1)
	assert.Len(t, b.Search(""), 4)
}

func TestSendRequest(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	b, backend := loadedBook(t, mockCtrl)
	backend.EXPECT().CreateFriendship(gomock.Any(), int64(5)).Return(&api.Friendship{ID: 9, Status: "pending"}, nil)

	require.NoError(t, b.SendRequest(context.Background(), 5))
	c, _ := b.Lookup(5)
	assert.Equal(t, PendingSent, c.Status)
	assert.False(t, b.CanMessage(5))
}

func TestAcceptAndReject(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	b, backend := loadedBook(t, mockCtrl)
	ctx := context.Background()
	pendingFrom := func(sender int64) api.FriendshipQuery {
		return api.FriendshipQuery{Receiver: 1, Sender: sender, Status: "pending"}
	}

	gomock.InOrder(
		backend.EXPECT().Friendships(gomock.Any(), pendingFrom(3)).Return([]api.Friendship{{ID: 11, Sender: 3, Receiver: 1}}, nil),
		backend.EXPECT().AcceptFriendship(gomock.Any(), int64(11)).Return(nil),
		backend.EXPECT().Friendships(gomock.Any(), pendingFrom(4)).Return(nil, nil),
		backend.EXPECT().Friendships(gomock.Any(), pendingFrom(5)).Return([]api.Friendship{{ID: 12}}, nil),
		backend.EXPECT().RejectFriendship(gomock.Any(), int64(12)).Return(&api.Error{StatusCode: 404, Detail: "Not found."}),
	)

	require.NoError(t, b.Accept(ctx, 3))
	assert.True(t, b.CanMessage(3))

	// dave's request was sent by us, there is nothing to accept
	assert.ErrorIs(t, b.Accept(ctx, 4), ErrNoPendingRequest)

	err := b.Reject(ctx, 5)
	assert.Equal(t, "Not found.", api.Detail(err, ""))
}
