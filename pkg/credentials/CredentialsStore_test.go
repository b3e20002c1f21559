package credentials_test

import (
	"os"
	"path"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/credentials"
)

const thing1ID = "urn:zone1:thing1:sensor"
const thing2ID = "urn:zone1:thing2:service"

func TestOpenMissingFile(t *testing.T) {
	logrus.Infof("--- TestOpenMissingFile ---")
	store := credentials.NewCredentialsStore(path.Join(t.TempDir(), "credentials.yaml"))
	err := store.Open(false)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Count())
	assert.Nil(t, store.GetCredentials(thing1ID))
}

func TestLoadFile(t *testing.T) {
	logrus.Infof("--- TestLoadFile ---")
	storePath := path.Join(t.TempDir(), "credentials.yaml")
	content := thing1ID + ":\n  username: user1\n  password: pass1\n" +
		thing2ID + ":\n  token: token1\n"
	require.NoError(t, os.WriteFile(storePath, []byte(content), 0600))

	store := credentials.NewCredentialsStore(storePath)
	require.NoError(t, store.Open(false))
	assert.Equal(t, 2, store.Count())
	creds := store.GetCredentials(thing1ID)
	require.NotNil(t, creds)
	assert.Equal(t, "user1", creds.Username)
	assert.Equal(t, "pass1", creds.Password)
	assert.Equal(t, "token1", store.GetCredentials(thing2ID).Token)

	// returned credentials are copies
	creds.Username = "changed"
	assert.Equal(t, "user1", store.GetCredentials(thing1ID).Username)
}

func TestSaveAndReload(t *testing.T) {
	logrus.Infof("--- TestSaveAndReload ---")
	storePath := path.Join(t.TempDir(), "credentials.yaml")
	store := credentials.NewCredentialsStore(storePath)
	require.NoError(t, store.Open(false))
	require.NoError(t, store.SetCredentials(thing1ID, api.Credentials{APIKey: "key1"}))
	require.NoError(t, store.SetCredentials(thing2ID, api.Credentials{Token: "token2"}))
	require.NoError(t, store.RemoveCredentials(thing2ID))

	store2 := credentials.NewCredentialsStore(storePath)
	require.NoError(t, store2.Open(false))
	assert.Equal(t, 1, store2.Count())
	assert.Equal(t, "key1", store2.GetCredentials(thing1ID).APIKey)
}

func TestInvalidFile(t *testing.T) {
	logrus.Infof("--- TestInvalidFile ---")
	storePath := path.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(storePath, []byte("thing1: [bad"), 0600))
	store := credentials.NewCredentialsStore(storePath)
	assert.Error(t, store.Open(false))
}

func TestEmptyEntry(t *testing.T) {
	logrus.Infof("--- TestEmptyEntry ---")
	storePath := path.Join(t.TempDir(), "credentials.yaml")
	content := thing1ID + ":\n" + thing2ID + ":\n  username: user2\n"
	require.NoError(t, os.WriteFile(storePath, []byte(content), 0600))

	store := credentials.NewCredentialsStore(storePath)
	require.NoError(t, store.Open(false))
	assert.Equal(t, 1, store.Count())
	assert.NotPanics(t, func() {
		assert.Nil(t, store.GetCredentials(thing1ID))
	})
	require.NotNil(t, store.GetCredentials(thing2ID))
	assert.Equal(t, "user2", store.GetCredentials(thing2ID).Username)
}

func TestWatchChanges(t *testing.T) {
	logrus.Infof("--- TestWatchChanges ---")
	storePath := path.Join(t.TempDir(), "credentials.yaml")
	store := credentials.NewCredentialsStore(storePath)
	require.NoError(t, store.Open(true))
	defer store.Close()
	assert.FileExists(t, storePath)

	// another process updates the file
	other := credentials.NewCredentialsStore(storePath)
	require.NoError(t, other.Open(false))
	require.NoError(t, other.SetCredentials(thing1ID, api.Credentials{Username: "user2"}))

	assert.Eventually(t, func() bool {
		creds := store.GetCredentials(thing1ID)
		return creds != nil && creds.Username == "user2"
	}, 2*time.Second, 50*time.Millisecond)
}
