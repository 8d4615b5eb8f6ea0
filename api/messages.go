package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Messages lists messages where the current user is sender or receiver,
// newest first.
func (c *Client) Messages(ctx context.Context) ([]Message, error) {
	var out []Message
	if err := c.getJSON(ctx, "messages/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Message fetches a single message, including its attachment fields.
func (c *Client) Message(ctx context.Context, id int64) (*Message, error) {
	var out Message
	if err := c.getJSON(ctx, "messages/"+strconv.FormatInt(id, 10)+"/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMessage sends a message as multipart form data.
func (c *Client) CreateMessage(ctx context.Context, m *NewMessage) (*Message, error) {
	form := &multipartForm{}
	form.set("receiver", strconv.FormatInt(m.Receiver, 10))
	if m.Content != "" {
		form.set("content", m.Content)
	}
	form.file("attachment", m.Attachment)

	var out Message
	if err := c.sendMultipart(ctx, http.MethodPost, "messages/", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Friendships lists friend requests matching q.
func (c *Client) Friendships(ctx context.Context, q FriendshipQuery) ([]Friendship, error) {
	query := url.Values{}
	if q.Receiver != 0 {
		query.Set("receiver", strconv.FormatInt(q.Receiver, 10))
	}
	if q.Sender != 0 {
		query.Set("sender", strconv.FormatInt(q.Sender, 10))
	}
	if q.Status != "" {
		query.Set("status", q.Status)
	}
	var out []Friendship
	if err := c.getJSON(ctx, "friendships/", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateFriendship sends a friend request to receiver.
func (c *Client) CreateFriendship(ctx context.Context, receiver int64) (*Friendship, error) {
	var out Friendship
	if err := c.sendJSON(ctx, http.MethodPost, "friendships/", map[string]int64{"receiver": receiver}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptFriendship accepts a pending request.
func (c *Client) AcceptFriendship(ctx context.Context, id int64) error {
	return c.sendJSON(ctx, http.MethodPost, "friendships/"+strconv.FormatInt(id, 10)+"/accept/", nil, nil)
}

// RejectFriendship rejects a pending request.
func (c *Client) RejectFriendship(ctx context.Context, id int64) error {
	return c.sendJSON(ctx, http.MethodPost, "friendships/"+strconv.FormatInt(id, 10)+"/reject/", nil, nil)
}

// ChatGroups lists the groups the current user belongs to.
func (c *Client) ChatGroups(ctx context.Context) ([]ChatGroup, error) {
	var out []ChatGroup
	if err := c.getJSON(ctx, "chat_groups/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateChatGroup creates a group with the given members.
func (c *Client) CreateChatGroup(ctx context.Context, name string, members []int64) (*ChatGroup, error) {
	in := struct {
		Name    string  `json:"name"`
		Members []int64 `json:"members"`
	}{name, members}
	var out ChatGroup
	if err := c.sendJSON(ctx, http.MethodPost, "chat_groups/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GroupMessages lists the messages of a group.
func (c *Client) GroupMessages(ctx context.Context, group int64) ([]GroupMessage, error) {
	query := url.Values{}
	query.Set("chat_group", strconv.FormatInt(group, 10))
	var out []GroupMessage
	if err := c.getJSON(ctx, "chat_messages/", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendGroupMessage posts a message to a group.
func (c *Client) SendGroupMessage(ctx context.Context, group int64, content string) (*GroupMessage, error) {
	in := struct {
		ChatGroup int64  `json:"chat_group"`
		Content   string `json:"content"`
	}{group, content}
	var out GroupMessage
	if err := c.sendJSON(ctx, http.MethodPost, "chat_messages/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
