package fakeapi

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type accessClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &accessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func setCookie(c *gin.Context, name, value string, maxAge int, httpOnly bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookies(c *gin.Context) {
	for _, name := range []string{accessCookie, refreshCookie} {
		setCookie(c, name, "", -1, true)
	}
}

// authenticated resolves the user from the access token cookie.
func (s *Server) authenticated(c *gin.Context) {
	raw, err := c.Cookie(accessCookie)
	if err != nil || raw == "" {
		detail(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	claims, err := s.parseToken(raw)
	if err != nil {
		glog.V(5).Infof("fakeapi: bad token: %v", err)
		detail(c, http.StatusUnauthorized, "Given token not valid for any token type")
		return
	}

	s.Lock()
	_, exists := s.users[claims.UserID]
	revoked := s.revoked[claims.ID]
	s.Unlock()
	if !exists || revoked {
		detail(c, http.StatusUnauthorized, "Given token not valid for any token type")
		return
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set("jti", claims.ID)
	c.Next()
}

// csrf checks the double submitted token on unsafe methods.
func (s *Server) csrf(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		c.Next()
		return
	}
	cookie, _ := c.Cookie(csrfCookie)
	if cookie == "" || c.GetHeader(csrfHeader) != cookie {
		detail(c, http.StatusForbidden, "CSRF Failed: CSRF token missing or incorrect.")
		return
	}
	c.Next()
}

func (s *Server) token(c *gin.Context) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.Lock()
	u := s.userByName(in.Username)
	s.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(in.Password)) != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	access, err := s.issueToken(u.UserID, s.accessTTL)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to generate token")
		return
	}
	refresh, err := s.issueToken(u.UserID, 24*time.Hour)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to generate token")
		return
	}

	setCookie(c, accessCookie, access, int(s.accessTTL/time.Second), true)
	setCookie(c, refreshCookie, refresh, 24*3600, true)
	setCookie(c, csrfCookie, randomHex(16), 365*24*3600, false)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

func (s *Server) logout(c *gin.Context) {
	s.Lock()
	s.revoked[c.GetString("jti")] = true
	s.Unlock()
	clearCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) profile(c *gin.Context) {
	s.Lock()
	u := s.users[currentUser(c)]
	p := u.Profile
	s.Unlock()
	c.JSON(http.StatusOK, p)
}

func (s *Server) updateProfile(c *gin.Context) {
	me := currentUser(c)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		detail(c, http.StatusBadRequest, "Multipart form expected")
		return
	}

	var pictureURL string
	if fh, err := c.FormFile("profile_picture"); err == nil {
		f, err := fh.Open()
		if err != nil {
			detail(c, http.StatusBadRequest, "Unreadable profile picture")
			return
		}
		data, _ := io.ReadAll(f)
		f.Close()
		key := uuid.NewString() + path.Ext(fh.Filename)
		s.Lock()
		s.files[key] = &attachment{contentType: fh.Header.Get("Content-Type"), data: data}
		s.Unlock()
		pictureURL = "/media/profile_pictures/" + key
	}

	s.Lock()
	defer s.Unlock()
	u := s.users[me]
	if name := strings.TrimSpace(c.PostForm("username")); name != "" && name != u.Username {
		if s.userByName(name) != nil {
			fieldError(c, "username", "A user with that username already exists.")
			return
		}
		u.Username = name
	}
	if email := strings.TrimSpace(c.PostForm("email")); email != "" {
		u.Email = email
	}
	u.FullName = c.PostForm("full_name")
	u.Bio = c.PostForm("bio")
	if pictureURL != "" {
		u.ProfilePictureURL = pictureURL
	}
	c.JSON(http.StatusOK, u.Profile)
}

func (s *Server) register(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	if username == "" || email == "" || password == "" {
		detail(c, http.StatusBadRequest, "username, email and password are required")
		return
	}

	s.Lock()
	taken := s.userByName(username) != nil
	verified := s.verified[strings.ToLower(email)]
	s.Unlock()
	if taken {
		fieldError(c, "username", "A user with that username already exists.")
		return
	}
	if !verified {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email not verified"})
		return
	}

	id, err := s.AddUser(username, email, password)
	if err != nil {
		fieldError(c, "username", err.Error())
		return
	}
	s.Lock()
	delete(s.verified, strings.ToLower(email))
	s.Unlock()
	c.JSON(http.StatusCreated, gin.H{"id": id, "username": username, "email": email})
}

type emailOTP struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

func bindEmail(c *gin.Context) (*emailOTP, bool) {
	var in emailOTP
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Email) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return nil, false
	}
	in.Email = strings.TrimSpace(in.Email)
	return &in, true
}

func (s *Server) sendRegistrationOTP(c *gin.Context) {
	in, ok := bindEmail(c)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	if s.userByEmail(in.Email) != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}
	s.newOTP("register", in.Email)
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func (s *Server) verifyRegistrationOTP(c *gin.Context) {
	in, ok := bindEmail(c)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	if !s.checkOTP("register", in.Email, in.OTP) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
		return
	}
	delete(s.otps, "register:"+strings.ToLower(in.Email))
	s.verified[strings.ToLower(in.Email)] = true
	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

func (s *Server) requestPasswordOTP(c *gin.Context) {
	in, ok := bindEmail(c)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	if s.userByEmail(in.Email) == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	s.newOTP("password", in.Email)
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func (s *Server) verifyPasswordOTP(c *gin.Context) {
	in, ok := bindEmail(c)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	if !s.checkOTP("password", in.Email, in.OTP) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified"})
}

func (s *Server) resetPassword(c *gin.Context) {
	in, ok := bindEmail(c)
	if !ok {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.MinCost)
	if err != nil || in.NewPassword == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid password"})
		return
	}

	s.Lock()
	defer s.Unlock()
	u := s.userByEmail(in.Email)
	if u == nil || !s.checkOTP("password", in.Email, in.OTP) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
		return
	}
	delete(s.otps, "password:"+strings.ToLower(in.Email))
	u.passwordHash = hash
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

func (s *Server) requestDeletion(c *gin.Context) {
	s.Lock()
	defer s.Unlock()
	u := s.users[currentUser(c)]
	s.newOTP("delete", u.Email)
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func (s *Server) confirmDeletion(c *gin.Context) {
	var in emailOTP
	_ = c.ShouldBindJSON(&in)
	me := currentUser(c)

	s.Lock()
	u := s.users[me]
	if !s.checkOTP("delete", u.Email, in.OTP) {
		s.Unlock()
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
		return
	}
	delete(s.otps, "delete:"+strings.ToLower(u.Email))
	s.deleteUser(me)
	s.Unlock()

	s.dropPeers(me)
	clearCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Account %s deleted", u.Username)})
}

// deleteUser removes id and everything that refers to it. The lock must
// be held.
func (s *Server) deleteUser(id int64) {
	delete(s.users, id)

	msgs := s.messages[:0]
	for _, m := range s.messages {
		if m.Sender != id && m.Receiver != id {
			msgs = append(msgs, m)
		}
	}
	s.messages = msgs

	friendships := s.friendships[:0]
	for _, f := range s.friendships {
		if f.Sender != id && f.Receiver != id {
			friendships = append(friendships, f)
		}
	}
	s.friendships = friendships

	blocks := s.blocks[:0]
	for _, b := range s.blocks {
		if b.owner != id && b.Blocked != id {
			blocks = append(blocks, b)
		}
	}
	s.blocks = blocks
}
