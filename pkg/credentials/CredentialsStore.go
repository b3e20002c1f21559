// Package credentials with a file based store of Thing credentials
package credentials

import (
	"errors"
	"os"
	"path"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/fslock"
	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/watcher"
	"gopkg.in/yaml.v3"
)

// LockTimeout is the maximum wait for another process to release the store file lock
const LockTimeout = 5 * time.Second

// CredentialsStore holds the credentials of Things by Thing ID.
// The store is persisted as a YAML file. Access to the file is guarded with a lock file
// so multiple consumers can share it.
//
// The file format:
//  urn:zone1:thing1:sensor:
//    username: user1
//    password: secret
//  urn:zone1:thing2:service:
//    token: eyJhbGciOiJFUzI1NiJ9...
type CredentialsStore struct {
	storePath   string
	credentials map[string]*api.Credentials
	watcher     *fsnotify.Watcher
	updateMutex sync.RWMutex
}

// GetCredentials returns the credentials of a Thing, or nil if the store has none
func (store *CredentialsStore) GetCredentials(thingID string) *api.Credentials {
	store.updateMutex.RLock()
	defer store.updateMutex.RUnlock()
	creds, found := store.credentials[thingID]
	if !found || creds == nil {
		return nil
	}
	credsCopy := *creds
	return &credsCopy
}

// SetCredentials adds or replaces the credentials of a Thing and saves the store
func (store *CredentialsStore) SetCredentials(thingID string, creds api.Credentials) error {
	store.updateMutex.Lock()
	store.credentials[thingID] = &creds
	store.updateMutex.Unlock()
	return store.Save()
}

// RemoveCredentials removes the credentials of a Thing and saves the store
func (store *CredentialsStore) RemoveCredentials(thingID string) error {
	store.updateMutex.Lock()
	delete(store.credentials, thingID)
	store.updateMutex.Unlock()
	return store.Save()
}

// Count returns the number of Things in the store
func (store *CredentialsStore) Count() int {
	store.updateMutex.RLock()
	defer store.updateMutex.RUnlock()
	return len(store.credentials)
}

// Open loads the store from file and optionally reloads it when the file changes.
// A missing file results in an empty store.
//  watchChanges reloads the store when the file is modified
func (store *CredentialsStore) Open(watchChanges bool) error {
	err := store.Reload()
	if err != nil {
		return err
	}
	if watchChanges {
		if _, statErr := os.Stat(store.storePath); errors.Is(statErr, os.ErrNotExist) {
			// create an empty file to watch
			if err = store.Save(); err != nil {
				return err
			}
		}
		store.watcher, err = watcher.WatchFile(store.storePath, 0, store.Reload)
		if err != nil {
			logrus.Errorf("CredentialsStore.Open: Unable to watch %s: %s", store.storePath, err)
			return err
		}
	}
	return nil
}

// Close stops watching the store file
func (store *CredentialsStore) Close() {
	store.updateMutex.Lock()
	defer store.updateMutex.Unlock()
	if store.watcher != nil {
		store.watcher.Close()
		store.watcher = nil
	}
}

// Reload the store from file
func (store *CredentialsStore) Reload() error {
	lock := fslock.New(store.storePath + ".lock")
	if err := lock.LockWithTimeout(LockTimeout); err != nil {
		logrus.Errorf("CredentialsStore.Reload: Unable to lock %s: %s", store.storePath, err)
		return err
	}
	defer lock.Unlock()

	credentials := make(map[string]*api.Credentials)
	data, err := os.ReadFile(store.storePath)
	if errors.Is(err, os.ErrNotExist) {
		logrus.Infof("CredentialsStore.Reload: Store file %s doesn't exist. Starting empty.", store.storePath)
	} else if err != nil {
		logrus.Errorf("CredentialsStore.Reload: Unable to read %s: %s", store.storePath, err)
		return err
	} else if err = yaml.Unmarshal(data, &credentials); err != nil {
		logrus.Errorf("CredentialsStore.Reload: Invalid store file %s: %s", store.storePath, err)
		return err
	}
	// a Thing ID without credentials underneath decodes as nil
	for thingID, creds := range credentials {
		if creds == nil {
			logrus.Warningf("CredentialsStore.Reload: Thing '%s' has no credentials. Ignored.", thingID)
			delete(credentials, thingID)
		}
	}
	store.updateMutex.Lock()
	store.credentials = credentials
	store.updateMutex.Unlock()
	logrus.Infof("CredentialsStore.Reload: Loaded credentials of %d Things", len(credentials))
	return nil
}

// Save the store to file
// The file is written to a temporary file first and renamed so readers never see a partial file.
func (store *CredentialsStore) Save() error {
	store.updateMutex.RLock()
	data, err := yaml.Marshal(store.credentials)
	store.updateMutex.RUnlock()
	if err != nil {
		return err
	}
	lock := fslock.New(store.storePath + ".lock")
	if err = lock.LockWithTimeout(LockTimeout); err != nil {
		logrus.Errorf("CredentialsStore.Save: Unable to lock %s: %s", store.storePath, err)
		return err
	}
	defer lock.Unlock()

	tmpPath := path.Join(path.Dir(store.storePath), "."+path.Base(store.storePath)+".tmp")
	if err = os.WriteFile(tmpPath, data, 0600); err != nil {
		logrus.Errorf("CredentialsStore.Save: Unable to write %s: %s", tmpPath, err)
		return err
	}
	return os.Rename(tmpPath, store.storePath)
}

// NewCredentialsStore creates a store for the given file. Use Open to load it.
//  storePath is the path of the YAML file
func NewCredentialsStore(storePath string) *CredentialsStore {
	store := &CredentialsStore{
		storePath:   storePath,
		credentials: make(map[string]*api.Credentials),
	}
	return store
}
