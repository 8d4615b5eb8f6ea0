package main

import (
	"bufio"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/mqy/minisocial/api"
)

// prompter reads answers from the terminal, or from piped stdin.
type prompter struct {
	f *os.File
	r *bufio.Reader
}

func newPrompter(f *os.File) *prompter {
	return &prompter{f: f, r: bufio.NewReader(f)}
}

// line prints label and returns the next input line, trimmed.
func (p *prompter) line(label string) (string, error) {
	if label != "" {
		fmt.Fprint(os.Stderr, label)
	}
	s, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// secret reads a line without echo when stdin is a terminal.
func (p *prompter) secret(label string) (string, error) {
	fd := int(p.f.Fd())
	if !term.IsTerminal(fd) {
		return p.line(label)
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// openUpload opens path as an upload. The content type comes from the
// extension, or is sniffed from the first bytes.
func openUpload(path string) (*api.File, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if ct == "" {
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		ct = http.DetectContentType(head[:n])
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, nil, err
		}
	}

	return &api.File{
		Name:        filepath.Base(path),
		ContentType: ct,
		Size:        st.Size(),
		Body:        f,
	}, func() { f.Close() }, nil
}
