package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

const (
	// CSRFCookie is the cookie the backend stores its CSRF token in.
	CSRFCookie = "csrftoken"
	// AccessCookie carries the JWT access token set by the token endpoint.
	AccessCookie = "access_token"

	csrfHeader = "X-CSRFToken"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Client talks to the backend REST API. All requests share one cookie jar,
// which plays the role of the browser's cookie store.
type Client struct {
	base *url.URL
	hc   *http.Client
}

// NewClient creates a client for the backend at baseURL. The jar must be
// non-nil: the session lives in its cookies.
func NewClient(baseURL string, jar http.CookieJar) (*Client, error) {
	if jar == nil {
		return nil, fmt.Errorf("api: cookie jar is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url `%s`: %v", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported scheme `%s`", u.Scheme)
	}
	return &Client{
		base: u,
		hc:   &http.Client{Jar: jar},
	}, nil
}

// BaseURL returns a copy of the backend base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Jar returns the cookie jar shared by all requests.
func (c *Client) Jar() http.CookieJar {
	return c.hc.Jar
}

// Cookie returns the value of the named cookie for the backend, or "".
func (c *Client) Cookie(name string) string {
	for _, ck := range c.hc.Jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// ChannelURL returns the websocket URL of the live message channel.
func (c *Client) ChannelURL() string {
	u := c.BaseURL()
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/messages/"
	return u.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.BaseURL()
	u.Path = strings.TrimRight(u.Path, "/") + "/api/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a request and decodes a JSON response into out when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader,
	contentType string, header http.Header, out interface{}) error {

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if method != http.MethodGet && req.Header.Get(csrfHeader) == "" {
		req.Header.Set(csrfHeader, c.Cookie(CSRFCookie))
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	glog.V(5).Infof("api: %s %s -> %d", method, path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newError(resp.StatusCode, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("api: %s %s: decode response: %v", method, path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", nil, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = strings.NewReader("{}")
	}
	return c.do(ctx, method, path, nil, body, "application/json", nil, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, strings.NewReader(form.Encode()),
		"application/x-www-form-urlencoded", nil, out)
}

// multipartForm accumulates text fields and file parts.
type multipartForm struct {
	fields [][2]string
	files  map[string]*File
}

func (f *multipartForm) set(k, v string) {
	f.fields = append(f.fields, [2]string{k, v})
}

func (f *multipartForm) file(k string, file *File) {
	if file == nil {
		return
	}
	if f.files == nil {
		f.files = make(map[string]*File)
	}
	f.files[k] = file
}

func (f *multipartForm) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	for k, file := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(k), escapeQuotes(file.Name)))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file.Body); err != nil {
			return nil, "", fmt.Errorf("api: read upload `%s`: %v", file.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) sendMultipart(ctx context.Context, method, path string, form *multipartForm, out interface{}) error {
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, nil, body, contentType, nil, out)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
