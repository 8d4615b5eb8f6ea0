package api

import (
	"io"
	"strconv"
	"time"
)

// Profile is the authenticated user's own record, as returned by the profile endpoint.
type Profile struct {
	UserID            int64  `json:"user_id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	FullName          string `json:"full_name,omitempty"`
	Bio               string `json:"bio,omitempty"`
	IsVerified        bool   `json:"is_verified"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// FriendshipRef is the per-user friendship summary embedded in user listings.
type FriendshipRef struct {
	Status   string `json:"status"` // pending, accepted, rejected
	IsSender bool   `json:"is_sender"`
}

// User is a listed user as seen by the current user.
type User struct {
	ID                int64          `json:"id"`
	Username          string         `json:"username"`
	ProfilePictureURL string         `json:"profile_picture_url,omitempty"`
	LastInteraction   *time.Time     `json:"last_interaction,omitempty"`
	FriendshipStatus  *FriendshipRef `json:"friendship_status"`
}

// PublicProfile is another user's profile page.
type PublicProfile struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"full_name,omitempty"`
	Bio               string `json:"bio,omitempty"`
	IsVerified        bool   `json:"is_verified"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// Message is a direct message. Entries that are still waiting for server
// confirmation carry IsTemporary and a TempID instead of a server ID.
type Message struct {
	ID                    int64     `json:"id,omitempty"`
	Sender                int64     `json:"sender"`
	SenderUsername        string    `json:"sender_username,omitempty"`
	Receiver              int64     `json:"receiver"`
	ReceiverUsername      string    `json:"receiver_username,omitempty"`
	Content               string    `json:"decrypted_content"`
	AttachmentURL         string    `json:"attachment_url,omitempty"`
	AttachmentContentType string    `json:"attachment_content_type,omitempty"`
	Timestamp             time.Time `json:"timestamp"`

	TempID      string `json:"-"`
	IsTemporary bool   `json:"-"`
	PreviewURL  string `json:"-"`
}

// Key identifies the entry in a local list.
func (m *Message) Key() string {
	if m.IsTemporary {
		return m.TempID
	}
	return strconv.FormatInt(m.ID, 10)
}

// HasAttachment reports whether the message carries a file.
func (m *Message) HasAttachment() bool {
	return m.AttachmentURL != ""
}

// File is an upload part of a multipart request.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// NewMessage is the payload for creating a direct message.
type NewMessage struct {
	Receiver   int64
	Content    string
	Attachment *File
}

// Friendship is a friend request between two users.
type Friendship struct {
	ID               int64     `json:"id"`
	Sender           int64     `json:"sender"`
	SenderUsername   string    `json:"sender_username"`
	Receiver         int64     `json:"receiver"`
	ReceiverUsername string    `json:"receiver_username"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// FriendshipQuery filters the friendship listing. Zero fields are omitted.
type FriendshipQuery struct {
	Sender   int64
	Receiver int64
	Status   string
}

// ChatGroup is a named group conversation.
type ChatGroup struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Members      []int64   `json:"members"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	MembersCount int       `json:"members_count"`
}

// GroupMessage is a message posted to a chat group.
type GroupMessage struct {
	ID                int64     `json:"id"`
	ChatGroup         int64     `json:"chat_group"`
	Sender            int64     `json:"sender"`
	SenderUsername    string    `json:"sender_username"`
	Content           string    `json:"decrypted_content"`
	Timestamp         time.Time `json:"timestamp"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
}

// Block records that the current user blocked another user.
type Block struct {
	ID              int64     `json:"id"`
	Blocked         int64     `json:"blocked"`
	BlockedUsername string    `json:"blocked_username"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReportCategory is a reason a user can be reported for.
type ReportCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	ReportPending     = "pending"
	ReportReviewing   = "reviewing"
	ReportResolved    = "resolved"
	ReportActionTaken = "action_taken"
)

// Report is a moderation report filed by the current user.
type Report struct {
	ID               int64     `json:"id"`
	Reporter         int64     `json:"reporter"`
	ReportedUser     int64     `json:"reported_user"`
	ReportedUsername string    `json:"reported_username"`
	Category         int64     `json:"category"`
	CategoryName     string    `json:"category_name"`
	Description      string    `json:"description"`
	Evidence         string    `json:"evidence,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	Status           string    `json:"status"`
}

// NewReport is the payload for filing a report.
type NewReport struct {
	ReportedUser int64
	Category     int64
	Description  string
	Evidence     *File
}

// ProfileUpdate is the payload for the profile update endpoint.
type ProfileUpdate struct {
	Username             string
	Email                string
	FullName             string
	Bio                  string
	ProfilePicture       *File
	VerificationDocument *File
}

// Registration is the payload for creating an account.
type Registration struct {
	Username string
	Email    string
	Password string
}
