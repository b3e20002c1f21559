// Package fileclient with a protocol client for Thing resources stored in local files
package fileclient

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/watcher"
)

// FileScheme is the URI scheme of file forms
const FileScheme = "file"

// ErrInvokeNotSupported is returned when invoking an action on a file
var ErrInvokeNotSupported = errors.New("files do not support actions")

// FileClient reads and writes the files of file:// forms and watches them for observation.
// Files are written atomically.
type FileClient struct {
	watchers    map[*fsnotify.Watcher]bool
	updateMutex sync.Mutex
}

// FormPath returns the local path of a file form
func FormPath(form api.Form) (string, error) {
	u, err := url.Parse(form.Href)
	if err != nil {
		return "", err
	}
	if u.Scheme != FileScheme || u.Path == "" {
		return "", fmt.Errorf("not a file url '%s'", form.Href)
	}
	return filepath.FromSlash(u.Path), nil
}

// mediaTypeOf returns the media type of a file from its extension, or "" if unknown
func mediaTypeOf(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	mediaType := mime.TypeByExtension(ext)
	if mediaType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return ""
	}
	return mediaType
}

// ReadResource reads the file
// The content media type is derived from the file extension when known
func (cl *FileClient) ReadResource(ctx context.Context, form api.Form) (api.Content, error) {
	path, err := FormPath(form)
	if err != nil {
		return api.Content{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("FileClient.ReadResource: %s", err)
		return api.Content{}, err
	}
	return api.Content{MediaType: mediaTypeOf(path), Body: data}, nil
}

// WriteResource replaces the file content
func (cl *FileClient) WriteResource(ctx context.Context, form api.Form, content api.Content) error {
	path, err := FormPath(form)
	if err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	err = os.WriteFile(tmpPath, content.Body, 0644)
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		logrus.Errorf("FileClient.WriteResource: %s", err)
	}
	return err
}

// InvokeResource is not supported for files
func (cl *FileClient) InvokeResource(ctx context.Context, form api.Form, content api.Content) (api.Content, error) {
	return api.Content{}, ErrInvokeNotSupported
}

// SubscribeResource invokes the handler with the file content each time the file changes
func (cl *FileClient) SubscribeResource(
	ctx context.Context, form api.Form, handler func(content api.Content)) (func(), error) {

	path, err := FormPath(form)
	if err != nil {
		return nil, err
	}
	fileWatcher, err := watcher.WatchFile(path, 0, func() error {
		content, err2 := cl.ReadResource(context.Background(), form)
		if err2 == nil {
			handler(content)
		}
		return err2
	})
	if err != nil {
		return nil, err
	}
	cl.updateMutex.Lock()
	cl.watchers[fileWatcher] = true
	cl.updateMutex.Unlock()

	return func() {
		cl.updateMutex.Lock()
		delete(cl.watchers, fileWatcher)
		cl.updateMutex.Unlock()
		fileWatcher.Close()
	}, nil
}

// SetSecurity accepts nosec only, as files are protected by the file system permissions
func (cl *FileClient) SetSecurity(security []api.SecurityScheme, credentials *api.Credentials) error {
	for _, scheme := range security {
		if scheme.Scheme == api.SecSchemeNoSec {
			return nil
		}
	}
	return fmt.Errorf("file client supports nosec only")
}

// Stop ends all file watches
func (cl *FileClient) Stop() {
	cl.updateMutex.Lock()
	defer cl.updateMutex.Unlock()
	for fileWatcher := range cl.watchers {
		fileWatcher.Close()
	}
	cl.watchers = make(map[*fsnotify.Watcher]bool)
}

// NewFileClient creates a client for file:// forms
func NewFileClient() *FileClient {
	return &FileClient{watchers: make(map[*fsnotify.Watcher]bool)}
}

// FileClientFactory creates file clients
type FileClientFactory struct{}

// GetScheme returns file
func (factory *FileClientFactory) GetScheme() string {
	return FileScheme
}

// GetClient returns a new FileClient
func (factory *FileClientFactory) GetClient() (api.IProtocolClient, error) {
	return NewFileClient(), nil
}

// NewFileClientFactory creates a factory for file clients
func NewFileClientFactory() *FileClientFactory {
	return &FileClientFactory{}
}
