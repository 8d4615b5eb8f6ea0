package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mqy/minisocial/api"
	"github.com/mqy/minisocial/auth"
	"github.com/mqy/minisocial/contacts"
	"github.com/mqy/minisocial/form"
)

type app struct {
	client  *api.Client
	session *auth.Session
	flows   *auth.Flows
	in      *prompter
	out     io.Writer
}

type command struct {
	usage string
	// needUser commands run after the session resolved a logged in user.
	needUser bool
	// interactive commands are not bound by --timeout.
	interactive bool
	run         func(ctx context.Context, a *app, args []string) error
}

var errUsage = errors.New("bad arguments, see -h")

var commands map[string]*command

func init() {
	commands = map[string]*command{
		"login":           {usage: "login <username>", run: cmdLogin, interactive: true},
		"logout":          {usage: "end the session", run: cmdLogout},
		"whoami":          {usage: "show the logged in user", needUser: true, run: cmdWhoami},
		"register":        {usage: "register <username> <email>", run: cmdRegister, interactive: true},
		"passwd":          {usage: "change password via an emailed code", needUser: true, run: cmdPasswd, interactive: true},
		"forgot-password": {usage: "forgot-password <email>", run: cmdForgotPassword, interactive: true},
		"delete-account":  {usage: "delete the account via an emailed code", needUser: true, run: cmdDeleteAccount, interactive: true},

		"profile":        {usage: "profile [username]", needUser: true, run: cmdProfile},
		"update-profile": {usage: "update-profile key=value... (username, email, full_name, bio, picture, document)", needUser: true, run: cmdUpdateProfile},
		"users":          {usage: "users [search]", needUser: true, run: cmdUsers},
		"friend":         {usage: "friend request|accept|reject <username>", needUser: true, run: cmdFriend},

		"messages":  {usage: "messages [username]", needUser: true, run: cmdMessages},
		"send":      {usage: "send <username> <text>", needUser: true, run: cmdSend},
		"send-file": {usage: "send-file <username> <path> [caption]", needUser: true, run: cmdSendFile},
		"chat":      {usage: "chat [username], full screen conversation", needUser: true, run: cmdChat, interactive: true},

		"groups":       {usage: "list chat groups", needUser: true, run: cmdGroups},
		"group-create": {usage: "group-create <name> [username...]", needUser: true, run: cmdGroupCreate},
		"group-read":   {usage: "group-read <group id>", needUser: true, run: cmdGroupRead},
		"group-send":   {usage: "group-send <group id> <text>", needUser: true, run: cmdGroupSend},

		"block":      {usage: "block <username>", needUser: true, run: cmdBlock},
		"unblock":    {usage: "unblock <username>", needUser: true, run: cmdUnblock},
		"blocks":     {usage: "list blocked users", needUser: true, run: cmdBlocks},
		"categories": {usage: "list report categories", needUser: true, run: cmdCategories},
		"report":     {usage: "report <username> <category id> <description> [evidence path]", needUser: true, run: cmdReport},
		"reports":    {usage: "list my reports", needUser: true, run: cmdReports},
	}
}

func (a *app) me() *api.Profile {
	return a.session.User()
}

// book loads the contact list of the logged in user.
func (a *app) book(ctx context.Context) (*contacts.Book, error) {
	b := contacts.NewBook(a.client, a.me().UserID)
	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (a *app) contact(ctx context.Context, username string) (*contacts.Book, contacts.Contact, error) {
	b, err := a.book(ctx)
	if err != nil {
		return nil, contacts.Contact{}, err
	}
	c, ok := b.ByUsername(username)
	if !ok {
		return nil, contacts.Contact{}, fmt.Errorf("no user `%s`", username)
	}
	return b, c, nil
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		var err error
		if username, err = a.in.line("username: "); err != nil {
			return err
		}
	}
	password, err := a.in.secret("password: ")
	if err != nil {
		return err
	}
	me, err := a.session.SignIn(ctx, username, password)
	if err != nil {
		return err
	}
	a.printf("logged in as %s\n", me.Username)
	return nil
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.printf("logged out\n")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, args []string) error {
	return printProfile(a, a.me())
}

func printProfile(a *app, p *api.Profile) error {
	w := a.table()
	fmt.Fprintf(w, "id\t%d\n", p.UserID)
	fmt.Fprintf(w, "username\t%s\n", p.Username)
	fmt.Fprintf(w, "email\t%s\n", p.Email)
	fmt.Fprintf(w, "name\t%s\n", p.FullName)
	fmt.Fprintf(w, "bio\t%s\n", p.Bio)
	fmt.Fprintf(w, "verified\t%v\n", p.IsVerified)
	if p.ProfilePictureURL != "" {
		fmt.Fprintf(w, "picture\t%s\n", p.ProfilePictureURL)
	}
	return w.Flush()
}

func newPassword(a *app) (string, string, error) {
	pw, err := a.in.secret("new password: ")
	if err != nil {
		return "", "", err
	}
	if msg := form.Password(pw); msg != "" {
		return "", "", form.Field("password", msg)
	}
	confirm, err := a.in.secret("confirm password: ")
	if err != nil {
		return "", "", err
	}
	return pw, confirm, nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	pw, confirm, err := newPassword(a)
	if err != nil {
		return err
	}
	r := &api.Registration{Username: args[0], Email: args[1], Password: pw}
	if err := a.flows.StartRegistration(ctx, r, confirm); err != nil {
		return err
	}
	otp, err := a.in.line("code sent to " + strings.TrimSpace(r.Email) + ": ")
	if err != nil {
		return err
	}
	if err := a.flows.CompleteRegistration(ctx, r, otp); err != nil {
		return err
	}
	a.printf("registered %s, you can login now\n", strings.TrimSpace(r.Username))
	return nil
}

func changePassword(ctx context.Context, a *app, email string) error {
	if err := a.flows.RequestPasswordChange(ctx, email); err != nil {
		return err
	}
	otp, err := a.in.line("code sent to " + email + ": ")
	if err != nil {
		return err
	}
	if err := a.flows.VerifyPasswordChange(ctx, email, otp); err != nil {
		return err
	}
	pw, confirm, err := newPassword(a)
	if err != nil {
		return err
	}
	if err := a.flows.ResetPassword(ctx, email, otp, pw, confirm); err != nil {
		return err
	}
	a.printf("password changed\n")
	return nil
}

func cmdPasswd(ctx context.Context, a *app, args []string) error {
	return changePassword(ctx, a, a.me().Email)
}

func cmdForgotPassword(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	return changePassword(ctx, a, strings.TrimSpace(args[0]))
}

func cmdDeleteAccount(ctx context.Context, a *app, args []string) error {
	me := a.me()
	if err := a.flows.RequestDeletion(ctx); err != nil {
		return err
	}
	otp, err := a.in.line("code sent to " + me.Email + ", enter it to delete " + me.Username + ": ")
	if err != nil {
		return err
	}
	if err := a.flows.ConfirmDeletion(ctx, otp); err != nil {
		return err
	}
	a.printf("account deleted\n")
	return nil
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		p, err := a.client.Profile(ctx)
		if err != nil {
			return err
		}
		return printProfile(a, p)
	}
	p, err := a.client.UserProfile(ctx, args[0])
	if err != nil {
		return err
	}
	w := a.table()
	fmt.Fprintf(w, "id\t%d\n", p.ID)
	fmt.Fprintf(w, "username\t%s\n", p.Username)
	fmt.Fprintf(w, "name\t%s\n", p.FullName)
	fmt.Fprintf(w, "bio\t%s\n", p.Bio)
	fmt.Fprintf(w, "verified\t%v\n", p.IsVerified)
	return w.Flush()
}

func cmdUpdateProfile(ctx context.Context, a *app, args []string) error {
	me := a.me()
	u := &api.ProfileUpdate{
		Username: me.Username,
		Email:    me.Email,
		FullName: me.FullName,
		Bio:      me.Bio,
	}
	for _, kv := range args {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return errUsage
		}
		switch k {
		case "username":
			if err := form.Username(v); err != nil {
				return err
			}
			u.Username = v
		case "email":
			u.Email = v
		case "full_name":
			u.FullName = v
		case "bio":
			u.Bio = v
		case "picture", "document":
			f, closeFn, err := openUpload(v)
			if err != nil {
				return err
			}
			defer closeFn()
			up := form.Upload{Name: f.Name, ContentType: f.ContentType, Size: f.Size}
			if k == "picture" {
				if err := form.ProfilePicture(up); err != nil {
					return err
				}
				u.ProfilePicture = f
			} else {
				if err := form.VerificationDocument(up); err != nil {
					return err
				}
				u.VerificationDocument = f
			}
		default:
			return fmt.Errorf("unknown profile field `%s`", k)
		}
	}
	p, err := a.client.UpdateProfile(ctx, u)
	if err != nil {
		return err
	}
	return printProfile(a, p)
}

func cmdUsers(ctx context.Context, a *app, args []string) error {
	b, err := a.book(ctx)
	if err != nil {
		return err
	}
	list := b.Contacts()
	if len(args) > 0 {
		list = b.Search(args[0])
	}
	w := a.table()
	fmt.Fprintf(w, "ID\tUSERNAME\tSTATUS\tLAST INTERACTION\n")
	for _, c := range list {
		last := "-"
		if c.LastInteraction != nil {
			last = c.LastInteraction.Local().Format(time.RFC822)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.Username, c.Status, last)
	}
	return w.Flush()
}

func cmdFriend(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	b, c, err := a.contact(ctx, args[1])
	if err != nil {
		return err
	}
	switch args[0] {
	case "request":
		err = b.SendRequest(ctx, c.ID)
	case "accept":
		err = b.Accept(ctx, c.ID)
	case "reject":
		err = b.Reject(ctx, c.ID)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	c, _ = b.Lookup(c.ID)
	a.printf("%s: %s\n", c.Username, c.Status)
	return nil
}

func printMessage(w io.Writer, me int64, m *api.Message) {
	who := m.SenderUsername
	if m.Sender == me {
		who = "me"
	}
	line := m.Content
	if m.HasAttachment() {
		line = strings.TrimSpace(line + " [" + m.AttachmentContentType + " " + m.AttachmentURL + "]")
	}
	fmt.Fprintf(w, "%s %s: %s\n", m.Timestamp.Local().Format("Jan 2 15:04"), who, line)
}

func cmdMessages(ctx context.Context, a *app, args []string) error {
	list, err := a.client.Messages(ctx)
	if err != nil {
		return err
	}
	me := a.me().UserID
	var peer string
	if len(args) > 0 {
		peer = args[0]
	}
	// the backend lists newest first
	for i := len(list) - 1; i >= 0; i-- {
		m := &list[i]
		if peer != "" && m.SenderUsername != peer && m.ReceiverUsername != peer {
			continue
		}
		printMessage(a.out, me, m)
	}
	return nil
}

func cmdSend(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	m, c, err := a.messenger(ctx, args[0])
	if err != nil {
		return err
	}
	defer m.Unmount()
	msg, err := m.SendText(ctx, c.ID, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if msg.IsTemporary {
		a.waitSettled(ctx, m, msg.TempID)
	}
	return nil
}

func cmdSendFile(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	f, closeFn, err := openUpload(args[1])
	if err != nil {
		return err
	}
	defer closeFn()

	m, c, err := a.messenger(ctx, args[0])
	if err != nil {
		return err
	}
	defer m.Unmount()
	msg, err := m.SendAttachment(ctx, c.ID, strings.Join(args[2:], " "), f)
	if err != nil {
		return err
	}
	a.printf("sent %s as message %d\n", f.Name, msg.ID)
	return nil
}

func cmdGroups(ctx context.Context, a *app, args []string) error {
	groups, err := a.client.ChatGroups(ctx)
	if err != nil {
		return err
	}
	w := a.table()
	fmt.Fprintf(w, "ID\tNAME\tMEMBERS\n")
	for _, g := range groups {
		fmt.Fprintf(w, "%d\t%s\t%d\n", g.ID, g.Name, g.MembersCount)
	}
	return w.Flush()
}

func cmdGroupCreate(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	var members []int64
	if len(args) > 1 {
		b, err := a.book(ctx)
		if err != nil {
			return err
		}
		for _, name := range args[1:] {
			c, ok := b.ByUsername(name)
			if !ok {
				return fmt.Errorf("no user `%s`", name)
			}
			members = append(members, c.ID)
		}
	}
	g, err := a.client.CreateChatGroup(ctx, args[0], members)
	if err != nil {
		return err
	}
	a.printf("created group %d with %d members\n", g.ID, g.MembersCount)
	return nil
}

func groupID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad group id `%s`", s)
	}
	return id, nil
}

func cmdGroupRead(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := groupID(args[0])
	if err != nil {
		return err
	}
	list, err := a.client.GroupMessages(ctx, id)
	if err != nil {
		return err
	}
	for _, m := range list {
		a.printf("%s %s: %s\n", m.Timestamp.Local().Format("Jan 2 15:04"), m.SenderUsername, m.Content)
	}
	return nil
}

func cmdGroupSend(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	id, err := groupID(args[0])
	if err != nil {
		return err
	}
	content := strings.Join(args[1:], " ")
	if strings.TrimSpace(content) == "" {
		return form.Field("content", "Message cannot be empty")
	}
	_, err = a.client.SendGroupMessage(ctx, id, content)
	return err
}

func cmdBlock(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	_, c, err := a.contact(ctx, args[0])
	if err != nil {
		return err
	}
	if _, err := a.client.CreateBlock(ctx, c.ID); err != nil {
		return err
	}
	a.printf("blocked %s\n", c.Username)
	return nil
}

func cmdUnblock(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	blocks, err := a.client.Blocks(ctx)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if b.BlockedUsername == args[0] {
			if err := a.client.DeleteBlock(ctx, b.ID); err != nil {
				return err
			}
			a.printf("unblocked %s\n", b.BlockedUsername)
			return nil
		}
	}
	return fmt.Errorf("`%s` is not blocked", args[0])
}

func cmdBlocks(ctx context.Context, a *app, args []string) error {
	blocks, err := a.client.Blocks(ctx)
	if err != nil {
		return err
	}
	w := a.table()
	fmt.Fprintf(w, "USERNAME\tSINCE\n")
	for _, b := range blocks {
		fmt.Fprintf(w, "%s\t%s\n", b.BlockedUsername, b.CreatedAt.Local().Format(time.RFC822))
	}
	return w.Flush()
}

func cmdCategories(ctx context.Context, a *app, args []string) error {
	cats, err := a.client.ReportCategories(ctx)
	if err != nil {
		return err
	}
	w := a.table()
	fmt.Fprintf(w, "ID\tNAME\tDESCRIPTION\n")
	for _, c := range cats {
		fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
	}
	return w.Flush()
}

func cmdReport(ctx context.Context, a *app, args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	category, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return form.Field("category", "Please select a category")
	}
	r := &api.NewReport{Category: category, Description: args[2]}

	var evidence *form.Upload
	if len(args) > 3 {
		f, closeFn, err := openUpload(args[3])
		if err != nil {
			return err
		}
		defer closeFn()
		r.Evidence = f
		evidence = &form.Upload{Name: f.Name, ContentType: f.ContentType, Size: f.Size}
	}
	if err := form.Report(r.Category, r.Description, evidence); err != nil {
		return err
	}

	_, c, err := a.contact(ctx, args[0])
	if err != nil {
		return err
	}
	r.ReportedUser = c.ID
	out, err := a.client.CreateReport(ctx, r)
	if err != nil {
		return err
	}
	a.printf("report %d filed, status %s\n", out.ID, out.Status)
	return nil
}

func cmdReports(ctx context.Context, a *app, args []string) error {
	reports, err := a.client.MyReports(ctx)
	if err != nil {
		return err
	}
	w := a.table()
	fmt.Fprintf(w, "ID\tUSER\tCATEGORY\tSTATUS\tFILED\n")
	for _, r := range reports {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.ReportedUsername, r.CategoryName, r.Status,
			r.CreatedAt.Local().Format(time.RFC822))
	}
	return w.Flush()
}
