package fakeapi

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mqy/minisocial/api"
)

const maxAttachmentBytes = 10 << 20

var attachmentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"video/mp4":  true,
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		detail(c, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

func (s *Server) listUsers(c *gin.Context) {
	me := currentUser(c)
	s.Lock()
	defer s.Unlock()

	out := []api.User{}
	for _, u := range s.users {
		if u.UserID == me || s.blocked(me, u.UserID) {
			continue
		}
		item := api.User{
			ID:                u.UserID,
			Username:          u.Username,
			ProfilePictureURL: u.ProfilePictureURL,
			LastInteraction:   s.lastInteraction(me, u.UserID),
		}
		if f := s.friendship(me, u.UserID); f != nil {
			item.FriendshipStatus = &api.FriendshipRef{Status: f.Status, IsSender: f.Sender == me}
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) userProfile(c *gin.Context) {
	s.Lock()
	u := s.userByName(c.Param("username"))
	var p api.PublicProfile
	if u != nil {
		p = api.PublicProfile{
			ID:                u.UserID,
			Username:          u.Username,
			FullName:          u.FullName,
			Bio:               u.Bio,
			IsVerified:        u.IsVerified,
			ProfilePictureURL: u.ProfilePictureURL,
		}
	}
	s.Unlock()
	if u == nil {
		detail(c, http.StatusNotFound, "Not found.")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) media(c *gin.Context) {
	s.Lock()
	f := s.files[c.Param("key")]
	s.Unlock()
	if f == nil {
		detail(c, http.StatusNotFound, "Not found.")
		return
	}
	c.Data(http.StatusOK, f.contentType, f.data)
}

func (s *Server) listMessages(c *gin.Context) {
	me := currentUser(c)
	s.Lock()
	out := s.sortedMessages(func(m *api.Message) bool { return m.Sender == me || m.Receiver == me })
	s.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) findMessage(c *gin.Context) (*api.Message, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	me := currentUser(c)
	for _, m := range s.messages {
		if m.ID == id && (m.Sender == me || m.Receiver == me) {
			return m, true
		}
	}
	detail(c, http.StatusNotFound, "Not found.")
	return nil, false
}

func (s *Server) getMessage(c *gin.Context) {
	s.Lock()
	m, ok := s.findMessage(c)
	var out api.Message
	if ok {
		out = *m
	}
	s.Unlock()
	if ok {
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) getAttachment(c *gin.Context) {
	s.Lock()
	m, ok := s.findMessage(c)
	var f *attachment
	if ok {
		f = s.files[s.attachmentKeys[m.ID]]
	}
	s.Unlock()
	if !ok {
		return
	}
	if f == nil {
		detail(c, http.StatusNotFound, "No attachment.")
		return
	}
	c.Data(http.StatusOK, f.contentType, f.data)
}

// postMessage stores a direct message from sender. The lock must be held.
func (s *Server) postMessage(sender, receiver int64, content string) (*api.Message, int, string) {
	if _, ok := s.users[receiver]; !ok {
		return nil, http.StatusBadRequest, "Receiver does not exist"
	}
	if receiver == sender {
		return nil, http.StatusBadRequest, "You cannot message yourself"
	}
	if !s.areFriends(sender, receiver) {
		return nil, http.StatusForbidden, "You can only message friends"
	}
	if s.blocked(sender, receiver) {
		return nil, http.StatusForbidden, "You cannot message this user"
	}
	m := &api.Message{
		ID:               s.newID(),
		Sender:           sender,
		SenderUsername:   s.username(sender),
		Receiver:         receiver,
		ReceiverUsername: s.username(receiver),
		Content:          content,
		Timestamp:        time.Now().UTC(),
	}
	s.messages = append(s.messages, m)
	return m, 0, ""
}

func (s *Server) createMessage(c *gin.Context) {
	me := currentUser(c)
	if err := c.Request.ParseMultipartForm(maxAttachmentBytes + (1 << 20)); err != nil {
		detail(c, http.StatusBadRequest, "Multipart form expected")
		return
	}
	receiver, err := strconv.ParseInt(c.PostForm("receiver"), 10, 64)
	if err != nil {
		fieldError(c, "receiver", "A valid integer is required.")
		return
	}
	content := c.PostForm("content")

	var file *attachment
	if fh, err := c.FormFile("attachment"); err == nil {
		ct := fh.Header.Get("Content-Type")
		if !attachmentTypes[ct] {
			fieldError(c, "attachment", "Only images and videos are allowed")
			return
		}
		if fh.Size > maxAttachmentBytes {
			fieldError(c, "attachment", "File size must be under 10MB")
			return
		}
		f, err := fh.Open()
		if err != nil {
			detail(c, http.StatusBadRequest, "Unreadable attachment")
			return
		}
		data, _ := io.ReadAll(f)
		f.Close()
		file = &attachment{contentType: ct, data: data}
	}
	if strings.TrimSpace(content) == "" && file == nil {
		detail(c, http.StatusBadRequest, "Message must have content or an attachment")
		return
	}

	s.Lock()
	m, code, msg := s.postMessage(me, receiver, content)
	if m != nil && file != nil {
		key := uuid.NewString()
		s.files[key] = file
		s.attachmentKeys[m.ID] = key
		m.AttachmentURL = fmt.Sprintf("/api/messages/%d/attachment/", m.ID)
		m.AttachmentContentType = file.contentType
	}
	var out api.Message
	if m != nil {
		out = *m
	}
	s.Unlock()

	if m == nil {
		detail(c, code, msg)
		return
	}

	if file != nil {
		s.pushTo(out.Receiver, attachmentFrame(out.ID))
	} else {
		s.pushTo(out.Receiver, chatFrame(&out))
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Server) listFriendships(c *gin.Context) {
	me := currentUser(c)
	var sender, receiver int64
	if v := c.Query("sender"); v != "" {
		sender, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := c.Query("receiver"); v != "" {
		receiver, _ = strconv.ParseInt(v, 10, 64)
	}
	status := c.Query("status")

	s.Lock()
	defer s.Unlock()
	out := []api.Friendship{}
	for _, f := range s.friendships {
		if f.Sender != me && f.Receiver != me {
			continue
		}
		if (sender != 0 && f.Sender != sender) || (receiver != 0 && f.Receiver != receiver) ||
			(status != "" && f.Status != status) {
			continue
		}
		out = append(out, *f)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createFriendship(c *gin.Context) {
	me := currentUser(c)
	var in struct {
		Receiver int64 `json:"receiver"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.Receiver == 0 {
		fieldError(c, "receiver", "This field is required.")
		return
	}

	s.Lock()
	defer s.Unlock()
	if _, ok := s.users[in.Receiver]; !ok || in.Receiver == me {
		fieldError(c, "receiver", "Invalid receiver.")
		return
	}
	if f := s.friendship(me, in.Receiver); f != nil && f.Status != "rejected" {
		detail(c, http.StatusBadRequest, "Friend request already exists")
		return
	}
	if s.blocked(me, in.Receiver) {
		detail(c, http.StatusForbidden, "You cannot befriend this user")
		return
	}
	f := &api.Friendship{
		ID:               s.newID(),
		Sender:           me,
		SenderUsername:   s.username(me),
		Receiver:         in.Receiver,
		ReceiverUsername: s.username(in.Receiver),
		Status:           "pending",
		CreatedAt:        time.Now().UTC(),
	}
	s.friendships = append(s.friendships, f)
	c.JSON(http.StatusCreated, f)
}

func (s *Server) answerFriendship(c *gin.Context, status string) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	me := currentUser(c)

	s.Lock()
	defer s.Unlock()
	for _, f := range s.friendships {
		if f.ID != id {
			continue
		}
		if f.Receiver != me {
			detail(c, http.StatusForbidden, "You can only answer requests sent to you")
			return
		}
		if f.Status != "pending" {
			detail(c, http.StatusBadRequest, "Request is not pending")
			return
		}
		f.Status = status
		c.JSON(http.StatusOK, gin.H{"status": status})
		return
	}
	detail(c, http.StatusNotFound, "Not found.")
}

func (s *Server) acceptFriendship(c *gin.Context) {
	s.answerFriendship(c, "accepted")
}

func (s *Server) rejectFriendship(c *gin.Context) {
	s.answerFriendship(c, "rejected")
}

func isMember(g *api.ChatGroup, id int64) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

func (s *Server) listGroups(c *gin.Context) {
	me := currentUser(c)
	s.Lock()
	defer s.Unlock()
	out := []api.ChatGroup{}
	for _, g := range s.groups {
		if isMember(g, me) {
			out = append(out, *g)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createGroup(c *gin.Context) {
	me := currentUser(c)
	var in struct {
		Name    string  `json:"name"`
		Members []int64 `json:"members"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Name) == "" {
		fieldError(c, "name", "This field is required.")
		return
	}

	s.Lock()
	defer s.Unlock()
	members := []int64{me}
	for _, id := range in.Members {
		if _, ok := s.users[id]; !ok {
			fieldError(c, "members", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
			return
		}
		if id != me {
			members = append(members, id)
		}
	}
	g := &api.ChatGroup{
		ID:           s.newID(),
		Name:         strings.TrimSpace(in.Name),
		Members:      members,
		CreatedBy:    me,
		CreatedAt:    time.Now().UTC(),
		MembersCount: len(members),
	}
	s.groups = append(s.groups, g)
	c.JSON(http.StatusCreated, g)
}

func (s *Server) group(id int64) *api.ChatGroup {
	for _, g := range s.groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

func (s *Server) listGroupMessages(c *gin.Context) {
	me := currentUser(c)
	id, _ := strconv.ParseInt(c.Query("chat_group"), 10, 64)

	s.Lock()
	defer s.Unlock()
	g := s.group(id)
	if g == nil || !isMember(g, me) {
		detail(c, http.StatusNotFound, "Not found.")
		return
	}
	out := []api.GroupMessage{}
	for _, m := range s.groupMsgs {
		if m.ChatGroup == id {
			out = append(out, *m)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createGroupMessage(c *gin.Context) {
	me := currentUser(c)
	var in struct {
		ChatGroup int64  `json:"chat_group"`
		Content   string `json:"content"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Content) == "" {
		fieldError(c, "content", "This field may not be blank.")
		return
	}

	s.Lock()
	defer s.Unlock()
	g := s.group(in.ChatGroup)
	if g == nil || !isMember(g, me) {
		detail(c, http.StatusForbidden, "You are not a member of this group")
		return
	}
	m := &api.GroupMessage{
		ID:                s.newID(),
		ChatGroup:         g.ID,
		Sender:            me,
		SenderUsername:    s.username(me),
		Content:           in.Content,
		Timestamp:         time.Now().UTC(),
		ProfilePictureURL: s.users[me].ProfilePictureURL,
	}
	s.groupMsgs = append(s.groupMsgs, m)
	c.JSON(http.StatusCreated, m)
}

func (s *Server) listBlocks(c *gin.Context) {
	me := currentUser(c)
	s.Lock()
	defer s.Unlock()
	out := []api.Block{}
	for _, b := range s.blocks {
		if b.owner == me {
			out = append(out, b.Block)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createBlock(c *gin.Context) {
	me := currentUser(c)
	var in struct {
		Blocked int64 `json:"blocked"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.Blocked == 0 {
		fieldError(c, "blocked", "This field is required.")
		return
	}

	s.Lock()
	defer s.Unlock()
	if _, ok := s.users[in.Blocked]; !ok || in.Blocked == me {
		fieldError(c, "blocked", "Invalid user.")
		return
	}
	for _, b := range s.blocks {
		if b.owner == me && b.Blocked == in.Blocked {
			detail(c, http.StatusBadRequest, "User already blocked")
			return
		}
	}
	b := &block{
		owner: me,
		Block: api.Block{
			ID:              s.newID(),
			Blocked:         in.Blocked,
			BlockedUsername: s.username(in.Blocked),
			CreatedAt:       time.Now().UTC(),
		},
	}
	s.blocks = append(s.blocks, b)
	c.JSON(http.StatusCreated, b.Block)
}

func (s *Server) deleteBlock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	me := currentUser(c)

	s.Lock()
	defer s.Unlock()
	for i, b := range s.blocks {
		if b.ID == id && b.owner == me {
			s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	detail(c, http.StatusNotFound, "Not found.")
}

func (s *Server) listCategories(c *gin.Context) {
	s.Lock()
	out := append([]api.ReportCategory(nil), s.categories...)
	s.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) createReport(c *gin.Context) {
	me := currentUser(c)
	if err := c.Request.ParseMultipartForm(8 << 20); err != nil {
		detail(c, http.StatusBadRequest, "Multipart form expected")
		return
	}
	reported, _ := strconv.ParseInt(c.PostForm("reported_user"), 10, 64)
	category, _ := strconv.ParseInt(c.PostForm("category"), 10, 64)
	description := strings.TrimSpace(c.PostForm("description"))
	if description == "" {
		fieldError(c, "description", "This field may not be blank.")
		return
	}

	var evidence *attachment
	var evidenceName string
	if fh, err := c.FormFile("evidence"); err == nil {
		f, err := fh.Open()
		if err != nil {
			detail(c, http.StatusBadRequest, "Unreadable evidence")
			return
		}
		data, _ := io.ReadAll(f)
		f.Close()
		evidence = &attachment{contentType: fh.Header.Get("Content-Type"), data: data}
		evidenceName = uuid.NewString() + path.Ext(fh.Filename)
	}

	s.Lock()
	defer s.Unlock()
	if _, ok := s.users[reported]; !ok || reported == me {
		fieldError(c, "reported_user", "Invalid user.")
		return
	}
	var categoryName string
	for _, cat := range s.categories {
		if cat.ID == category {
			categoryName = cat.Name
		}
	}
	if categoryName == "" {
		fieldError(c, "category", "Invalid category.")
		return
	}

	r := &api.Report{
		ID:               s.newID(),
		Reporter:         me,
		ReportedUser:     reported,
		ReportedUsername: s.username(reported),
		Category:         category,
		CategoryName:     categoryName,
		Description:      description,
		CreatedAt:        time.Now().UTC(),
		Status:           api.ReportPending,
	}
	if evidence != nil {
		s.files[evidenceName] = evidence
		r.Evidence = "/media/report_evidence/" + evidenceName
	}
	s.reports = append(s.reports, r)
	c.JSON(http.StatusCreated, r)
}

func (s *Server) myReports(c *gin.Context) {
	me := currentUser(c)
	s.Lock()
	defer s.Unlock()
	out := []api.Report{}
	for _, r := range s.reports {
		if r.Reporter == me {
			out = append(out, *r)
		}
	}
	c.JSON(http.StatusOK, out)
}
