package fakeapi_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqy/minisocial/api"
	"github.com/mqy/minisocial/auth"
	"github.com/mqy/minisocial/contacts"
	"github.com/mqy/minisocial/dev/fakeapi"
	"github.com/mqy/minisocial/store"
	"github.com/mqy/minisocial/ws"
)

const password = "s3cret!pass"

type env struct {
	srv *fakeapi.Server
	ts  *httptest.Server
}

func newEnv(t *testing.T) *env {
	srv := fakeapi.New(fakeapi.Config{Secret: "test"})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &env{srv: srv, ts: ts}
}

func (e *env) addUser(t *testing.T, name string) int64 {
	id, err := e.srv.AddUser(name, name+"@example.com", password)
	require.NoError(t, err)
	return id
}

// member is one logged in client of the fake backend.
type member struct {
	client  *api.Client
	session *auth.Session
	book    *contacts.Book
	chat    *ws.Messenger
}

func (e *env) client(t *testing.T) *api.Client {
	jar, err := store.NewJar(nil)
	require.NoError(t, err)
	c, err := api.NewClient(e.ts.URL, jar)
	require.NoError(t, err)
	return c
}

func (e *env) login(t *testing.T, name string) *member {
	ctx := context.Background()
	c := e.client(t)
	s := auth.NewSession(c)
	require.NoError(t, s.Init(ctx))

	me, err := s.SignIn(ctx, name, password)
	require.NoError(t, err)

	book := contacts.NewBook(c, me.UserID)
	require.NoError(t, book.Load(ctx))

	chat := ws.NewMessenger(c, book, ws.Options{
		ChannelURL: c.ChannelURL(),
		Jar:        c.Jar(),
		Keepalive:  time.Hour,
	})
	return &member{client: c, session: s, book: book, chat: chat}
}

func (m *member) mount(t *testing.T) {
	require.NoError(t, m.chat.Mount(context.Background(), m.session.User()))
	t.Cleanup(m.chat.Unmount)
}

func TestProbeWithoutSession(t *testing.T) {
	e := newEnv(t)
	s := auth.NewSession(e.client(t))

	require.NoError(t, s.Init(context.Background()))
	assert.Nil(t, s.User())
	assert.False(t, s.Loading())

	_, err := s.RequireUser()
	assert.ErrorIs(t, err, auth.ErrRedirectLogin)
}

func TestSignInAndLogout(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice")
	ctx := context.Background()

	c := e.client(t)
	s := auth.NewSession(c)
	_, err := s.SignIn(ctx, "alice", "wrong-pass1!")
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
	assert.Equal(t, "Invalid credentials", api.Detail(err, ""))

	me, err := s.SignIn(ctx, "alice", password)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.NotEmpty(t, c.Cookie(api.CSRFCookie))

	access := c.Cookie(api.AccessCookie)
	require.NotEmpty(t, access)
	exp, err := auth.TokenExpiry(access)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, s.User())

	// the old token was revoked server side
	c.Jar().SetCookies(c.BaseURL(), []*http.Cookie{{Name: api.AccessCookie, Value: access, Path: "/"}})
	_, err = c.Profile(ctx)
	assert.True(t, api.IsAuthError(err))
}

func TestCSRFRequired(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	m := e.login(t, "alice")

	hc := &http.Client{Jar: m.client.Jar()}
	resp, err := hc.Post(e.ts.URL+"/api/blocks/", "application/json",
		strings.NewReader(`{"blocked":`+strconv.FormatInt(bob, 10)+`}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// the client sends the header from the cookie
	b, err := m.client.CreateBlock(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, "bob", b.BlockedUsername)
}

func TestRegistration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client(t)
	s := auth.NewSession(c)
	flows := auth.NewFlows(c, s)

	r := &api.Registration{Username: "zoe", Email: " zoe@example.com ", Password: password}
	require.NoError(t, flows.StartRegistration(ctx, r, password))

	// not verified yet
	err := c.Register(ctx, &api.Registration{Username: "zoe", Email: "zoe@example.com", Password: password})
	assert.Equal(t, "Email not verified", api.Detail(err, ""))

	otp := e.srv.LastOTP("register", "zoe@example.com")
	require.Len(t, otp, 6)
	require.NoError(t, flows.CompleteRegistration(ctx, r, otp))

	me, err := s.SignIn(ctx, "zoe", password)
	require.NoError(t, err)
	assert.Equal(t, "zoe@example.com", me.Email)
}

func TestForgotPassword(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice")
	ctx := context.Background()
	c := e.client(t)
	flows := auth.NewFlows(c, auth.NewSession(c))

	err := flows.RequestPasswordChange(ctx, "nobody@example.com")
	assert.Equal(t, http.StatusNotFound, api.StatusCode(err))

	require.NoError(t, flows.RequestPasswordChange(ctx, "alice@example.com"))
	otp := e.srv.LastOTP("password", "alice@example.com")
	require.NoError(t, flows.VerifyPasswordChange(ctx, "alice@example.com", otp))

	err = flows.ResetPassword(ctx, "alice@example.com", otp, "weak", "weak")
	assert.Error(t, err)
	require.NoError(t, flows.ResetPassword(ctx, "alice@example.com", otp, "n3w-pass!word", "n3w-pass!word"))

	_, err = auth.NewSession(c).SignIn(ctx, "alice", "n3w-pass!word")
	require.NoError(t, err)
}

func TestFriendRequests(t *testing.T) {
	e := newEnv(t)
	alice := e.addUser(t, "alice")
	e.addUser(t, "bob")
	carol := e.addUser(t, "carol")
	ctx := context.Background()

	bm := e.login(t, "bob")
	require.NoError(t, bm.book.SendRequest(ctx, alice))
	cm := e.login(t, "carol")
	require.NoError(t, cm.book.SendRequest(ctx, alice))

	am := e.login(t, "alice")
	c, ok := am.book.ByUsername("bob")
	require.True(t, ok)
	assert.Equal(t, contacts.PendingReceived, c.Status)

	require.NoError(t, am.book.Accept(ctx, c.ID))
	require.NoError(t, am.book.Reject(ctx, carol))
	assert.True(t, am.book.CanMessage(c.ID))
	assert.False(t, am.book.CanMessage(carol))

	// the backend agrees after a reload
	require.NoError(t, bm.book.Load(ctx))
	assert.True(t, bm.book.CanMessage(alice))
	require.NoError(t, cm.book.Load(ctx))
	got, _ := cm.book.Lookup(alice)
	assert.Equal(t, contacts.None, got.Status)

	// carol's request was answered already
	assert.ErrorIs(t, am.book.Accept(ctx, carol), contacts.ErrNoPendingRequest)
}

func friends(t *testing.T, e *env) (*member, *member) {
	a := e.addUser(t, "alice")
	b := e.addUser(t, "bob")
	e.srv.MakeFriends(a, b)
	am, bm := e.login(t, "alice"), e.login(t, "bob")
	am.mount(t)
	bm.mount(t)
	require.Eventually(t, func() bool { return e.srv.ActiveConns() == 2 }, 3*time.Second, 10*time.Millisecond)
	return am, bm
}

func TestMessagingOverChannel(t *testing.T) {
	e := newEnv(t)
	am, bm := friends(t, e)
	bob := bm.session.User().UserID

	_, err := am.chat.SendText(context.Background(), bob, "hello bob")
	require.NoError(t, err)

	settled := func(m *member) bool {
		list := m.chat.Messages()
		return len(list) == 1 && !list[0].IsTemporary && list[0].ID > 0
	}
	require.Eventually(t, func() bool { return settled(am) && settled(bm) }, 3*time.Second, 10*time.Millisecond)

	got := bm.chat.Conversation(am.session.User().UserID)
	require.Len(t, got, 1)
	assert.Equal(t, "hello bob", got[0].Content)
	assert.Equal(t, "alice", got[0].SenderUsername)
	assert.Equal(t, am.chat.Messages()[0].ID, got[0].ID)

	// a reload merges by id
	require.NoError(t, am.chat.Refresh(context.Background()))
	assert.Len(t, am.chat.Messages(), 1)
}

func TestRESTSendReachesReceiver(t *testing.T) {
	e := newEnv(t)
	am, bm := friends(t, e)
	bob := bm.session.User().UserID

	// plain request while the sender has no channel
	am.chat.Unmount()
	msg, err := am.chat.SendText(context.Background(), bob, "over rest")
	require.NoError(t, err)
	assert.False(t, msg.IsTemporary)

	require.Eventually(t, func() bool { return len(bm.chat.Messages()) == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, msg.ID, bm.chat.Messages()[0].ID)
}

func TestAttachment(t *testing.T) {
	e := newEnv(t)
	am, bm := friends(t, e)
	bob := bm.session.User().UserID
	data := []byte("\x89PNG fake image")

	msg, err := am.chat.SendAttachment(context.Background(), bob, "look", &api.File{
		Name:        "cat.png",
		ContentType: "image/png",
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})
	require.NoError(t, err)
	assert.True(t, msg.HasAttachment())

	list := am.chat.Messages()
	require.Len(t, list, 1)
	assert.Empty(t, list[0].PreviewURL)
	assert.Equal(t, msg.ID, list[0].ID)

	require.Eventually(t, func() bool {
		list := bm.chat.Messages()
		return len(list) == 1 && list[0].HasAttachment()
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "image/png", bm.chat.Messages()[0].AttachmentContentType)

	hc := &http.Client{Jar: bm.client.Jar()}
	resp, err := hc.Get(e.ts.URL + msg.AttachmentURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestMessagingNonFriend(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	am := e.login(t, "alice")

	_, err := am.client.CreateMessage(context.Background(), &api.NewMessage{Receiver: bob, Content: "hi"})
	assert.Equal(t, http.StatusForbidden, api.StatusCode(err))
	assert.Equal(t, "You can only message friends", api.Detail(err, ""))
}

func TestBlockHidesUser(t *testing.T) {
	e := newEnv(t)
	am, bm := friends(t, e)
	ctx := context.Background()
	bob := bm.session.User().UserID

	b, err := am.client.CreateBlock(ctx, bob)
	require.NoError(t, err)

	require.NoError(t, am.book.Load(ctx))
	_, ok := am.book.Lookup(bob)
	assert.False(t, ok)

	_, err = am.client.CreateMessage(ctx, &api.NewMessage{Receiver: bob, Content: "hi"})
	assert.Equal(t, http.StatusForbidden, api.StatusCode(err))

	require.NoError(t, am.client.DeleteBlock(ctx, b.ID))
	blocks, err := am.client.Blocks(ctx)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestReports(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice")
	bob := e.addUser(t, "bob")
	am := e.login(t, "alice")
	ctx := context.Background()

	cats, err := am.client.ReportCategories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cats)

	r, err := am.client.CreateReport(ctx, &api.NewReport{
		ReportedUser: bob,
		Category:     cats[0].ID,
		Description:  "spamming me",
	})
	require.NoError(t, err)
	assert.Equal(t, api.ReportPending, r.Status)

	mine, err := am.client.MyReports(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "bob", mine[0].ReportedUsername)
}

func TestDeleteAccount(t *testing.T) {
	e := newEnv(t)
	am, bm := friends(t, e)
	ctx := context.Background()
	flows := auth.NewFlows(am.client, am.session)

	require.NoError(t, flows.RequestDeletion(ctx))
	require.NoError(t, flows.ConfirmDeletion(ctx, e.srv.LastOTP("delete", "alice@example.com")))
	assert.Nil(t, am.session.User())

	_, err := am.client.Profile(ctx)
	assert.True(t, api.IsAuthError(err))

	// the dropped channel shows up as an error, without reconnecting
	require.Eventually(t, func() bool { return am.chat.Err() != "" }, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return e.srv.ActiveConns() == 1 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, bm.book.Load(ctx))
	assert.Empty(t, bm.book.Contacts())
}
