package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqy/minisocial/api"
	"github.com/mqy/minisocial/form"
)

func TestDescribe(t *testing.T) {
	assert.Equal(t, "boom", describe(errors.New("boom")))
	assert.Equal(t, "password: too short", describe(fmt.Errorf("register: %w", form.Field("password", "too short"))))
	assert.Equal(t, "Not found.", describe(&api.Error{StatusCode: 404, Detail: "Not found."}))
	assert.Equal(t, "Invalid (email: bad; username: taken)", describe(&api.Error{
		StatusCode: 400,
		Detail:     "Invalid",
		Fields:     map[string]string{"username": "taken", "email": "bad"},
	}))
}

func TestOpenUpload(t *testing.T) {
	dir := t.TempDir()

	png := filepath.Join(dir, "cat.png")
	require.NoError(t, os.WriteFile(png, []byte("not really a png"), 0600))
	f, closeFn, err := openUpload(png)
	require.NoError(t, err)
	assert.Equal(t, "cat.png", f.Name)
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, int64(16), f.Size)
	closeFn()

	// no extension, sniffed
	gif := filepath.Join(dir, "anim")
	require.NoError(t, os.WriteFile(gif, []byte("GIF89a......"), 0600))
	f, closeFn, err = openUpload(gif)
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, "image/gif", f.ContentType)
	data, err := io.ReadAll(f.Body)
	require.NoError(t, err)
	assert.Equal(t, "GIF89a......", string(data), "body starts from the beginning")

	_, _, err = openUpload(filepath.Join(dir, "missing.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestCommandsHaveUsage(t *testing.T) {
	for name, cmd := range commands {
		assert.NotEmpty(t, cmd.usage, name)
		assert.NotNil(t, cmd.run, name)
	}
}
