// Package fakeapi is an in-memory stand-in for the social backend. It
// serves the REST endpoints and the live messaging channel, and is used by
// the tests and the demo.
package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mqy/minisocial/api"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
	csrfCookie    = "csrftoken"
	csrfHeader    = "X-CSRFToken"

	ctxUserID = "user_id"
)

type Config struct {
	// Secret signs the access tokens. A random one is used when empty.
	Secret    string
	AccessTTL time.Duration
	Debug     bool
}

type user struct {
	api.Profile
	passwordHash []byte
}

type block struct {
	api.Block
	owner int64
}

type attachment struct {
	contentType string
	data        []byte
}

// Server holds all backend state in memory.
type Server struct {
	sync.Mutex

	secret    []byte
	accessTTL time.Duration
	engine    *gin.Engine

	nextID int64

	users    map[int64]*user
	messages []*api.Message

	files          map[string]*attachment
	attachmentKeys map[int64]string // message id to key in files

	friendships []*api.Friendship
	groups      []*api.ChatGroup
	groupMsgs   []*api.GroupMessage
	blocks      []*block
	categories  []api.ReportCategory
	reports     []*api.Report

	otps     map[string]string
	verified map[string]bool
	revoked  map[string]bool

	peers  map[int64]map[*peer]struct{}
	active int32
}

func New(cfg Config) *Server {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = []byte(randomHex(32))
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}

	s := &Server{
		secret:         secret,
		accessTTL:      cfg.AccessTTL,
		users:          make(map[int64]*user),
		files:          make(map[string]*attachment),
		attachmentKeys: make(map[int64]string),
		otps:           make(map[string]string),
		verified:       make(map[string]bool),
		revoked:        make(map[string]bool),
		peers:          make(map[int64]map[*peer]struct{}),
	}
	for _, name := range []string{"Spam", "Harassment", "Inappropriate content", "Other"} {
		s.categories = append(s.categories, api.ReportCategory{ID: s.newID(), Name: name})
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), accessLog())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/ws/messages/", s.authenticated, s.serveChannel)
	r.GET("/media/:kind/:key", s.authenticated, s.media)

	pub := r.Group("/api")
	{
		pub.POST("/token/", s.token)
		pub.POST("/register/", s.register)
		pub.POST("/send-otp/", s.sendRegistrationOTP)
		pub.POST("/verify-otp/", s.verifyRegistrationOTP)
		pub.POST("/change-password/request-otp/", s.requestPasswordOTP)
		pub.POST("/change-password/verify-otp/", s.verifyPasswordOTP)
		pub.POST("/change-password/reset/", s.resetPassword)
	}

	priv := r.Group("/api", s.authenticated, s.csrf)
	{
		priv.GET("/profile/", s.profile)
		priv.PUT("/profile/update/", s.updateProfile)
		priv.POST("/logout/", s.logout)
		priv.POST("/delete-account/request/", s.requestDeletion)
		priv.POST("/delete-account/confirm/", s.confirmDeletion)

		priv.GET("/users/", s.listUsers)
		priv.GET("/users/:username/profile/", s.userProfile)

		priv.GET("/messages/", s.listMessages)
		priv.POST("/messages/", s.createMessage)
		priv.GET("/messages/:id/", s.getMessage)
		priv.GET("/messages/:id/attachment/", s.getAttachment)

		priv.GET("/friendships/", s.listFriendships)
		priv.POST("/friendships/", s.createFriendship)
		priv.POST("/friendships/:id/accept/", s.acceptFriendship)
		priv.POST("/friendships/:id/reject/", s.rejectFriendship)

		priv.GET("/chat_groups/", s.listGroups)
		priv.POST("/chat_groups/", s.createGroup)
		priv.GET("/chat_messages/", s.listGroupMessages)
		priv.POST("/chat_messages/", s.createGroupMessage)

		priv.GET("/blocks/", s.listBlocks)
		priv.POST("/blocks/", s.createBlock)
		priv.DELETE("/blocks/:id/", s.deleteBlock)

		priv.GET("/report-categories/", s.listCategories)
		priv.POST("/reports/", s.createReport)
		priv.GET("/my-reports/", s.myReports)
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		glog.V(5).Infof("fakeapi: %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start))
	}
}

// AddUser creates a verified account.
func (s *Server) AddUser(username, email, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return 0, err
	}
	s.Lock()
	defer s.Unlock()
	if s.userByName(username) != nil {
		return 0, fmt.Errorf("user `%s` exists", username)
	}
	u := &user{
		Profile:      api.Profile{UserID: s.newID(), Username: username, Email: email, IsVerified: true},
		passwordHash: hash,
	}
	s.users[u.UserID] = u
	return u.UserID, nil
}

// MakeFriends records an accepted friendship between a and b.
func (s *Server) MakeFriends(a, b int64) {
	s.Lock()
	defer s.Unlock()
	s.friendships = append(s.friendships, &api.Friendship{
		ID:               s.newID(),
		Sender:           a,
		SenderUsername:   s.username(a),
		Receiver:         b,
		ReceiverUsername: s.username(b),
		Status:           "accepted",
		CreatedAt:        time.Now(),
	})
}

// LastOTP returns the code last mailed to email for purpose, which is one
// of "register", "password" or "delete".
func (s *Server) LastOTP(purpose, email string) string {
	s.Lock()
	defer s.Unlock()
	return s.otps[purpose+":"+strings.ToLower(email)]
}

// ActiveConns returns the number of live channel connections.
func (s *Server) ActiveConns() int {
	return int(atomic.LoadInt32(&s.active))
}

// must be called with the lock held.
func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) userByName(name string) *user {
	for _, u := range s.users {
		if u.Username == name {
			return u
		}
	}
	return nil
}

func (s *Server) userByEmail(email string) *user {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (s *Server) username(id int64) string {
	if u, ok := s.users[id]; ok {
		return u.Username
	}
	return ""
}

// friendship returns the latest friendship between a and b.
func (s *Server) friendship(a, b int64) *api.Friendship {
	for i := len(s.friendships) - 1; i >= 0; i-- {
		f := s.friendships[i]
		if (f.Sender == a && f.Receiver == b) || (f.Sender == b && f.Receiver == a) {
			return f
		}
	}
	return nil
}

func (s *Server) areFriends(a, b int64) bool {
	f := s.friendship(a, b)
	return f != nil && f.Status == "accepted"
}

func (s *Server) blocked(a, b int64) bool {
	for _, bl := range s.blocks {
		if (bl.owner == a && bl.Blocked == b) || (bl.owner == b && bl.Blocked == a) {
			return true
		}
	}
	return false
}

func (s *Server) lastInteraction(a, b int64) *time.Time {
	var last *time.Time
	for _, m := range s.messages {
		if (m.Sender == a && m.Receiver == b) || (m.Sender == b && m.Receiver == a) {
			ts := m.Timestamp
			if last == nil || ts.After(*last) {
				last = &ts
			}
		}
	}
	return last
}

// newOTP stores and returns a fresh 6 digit code. The lock must be held.
func (s *Server) newOTP(purpose, email string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic("failed to generate otp: " + err.Error())
	}
	code := fmt.Sprintf("%06d", n.Int64())
	s.otps[purpose+":"+strings.ToLower(email)] = code
	glog.V(5).Infof("fakeapi: otp for %s %s: %s", purpose, email, code)
	return code
}

func (s *Server) checkOTP(purpose, email, code string) bool {
	want, ok := s.otps[purpose+":"+strings.ToLower(email)]
	return ok && code != "" && want == code
}

func (s *Server) sortedMessages(filter func(*api.Message) bool) []api.Message {
	out := []api.Message{}
	for _, m := range s.messages {
		if filter(m) {
			out = append(out, *m)
		}
	}
	// newest first
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random token: " + err.Error())
	}
	return hex.EncodeToString(b)
}

func detail(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"detail": msg})
}

func fieldError(c *gin.Context, field, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{field: []string{msg}})
}

func currentUser(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}
