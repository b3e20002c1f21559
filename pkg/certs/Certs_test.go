package certs_test

import (
	"crypto/x509"
	"os"
	"path"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wostzone/wostconsumer-go/pkg/certs"
)

func TestCreateCertificateBundle(t *testing.T) {
	logrus.Infof("--- TestCreateCertificateBundle ---")
	certFolder := t.TempDir()
	err := certs.CreateCertificateBundle("thing1.local", "consumer1", certFolder)
	require.NoError(t, err)

	caPEM, err := os.ReadFile(path.Join(certFolder, certs.CaCertFile))
	require.NoError(t, err)
	caCert, err := certs.CertFromPEM(caPEM)
	require.NoError(t, err)
	serverPEM, err := os.ReadFile(path.Join(certFolder, certs.ServerCertFile))
	require.NoError(t, err)
	serverCert, err := certs.CertFromPEM(serverPEM)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(caCert)
	_, err = serverCert.Verify(x509.VerifyOptions{Roots: pool, DNSName: "thing1.local"})
	assert.NoError(t, err)
	_, err = serverCert.Verify(x509.VerifyOptions{Roots: pool, DNSName: "localhost"})
	assert.NoError(t, err)

	keyPEM, err := os.ReadFile(path.Join(certFolder, certs.ServerKeyFile))
	require.NoError(t, err)
	_, err = certs.PrivateKeyFromPEM(keyPEM)
	assert.NoError(t, err)
}

func TestLoadTLSConfig(t *testing.T) {
	logrus.Infof("--- TestLoadTLSConfig ---")
	certFolder := t.TempDir()
	require.NoError(t, certs.CreateCertificateBundle("", "consumer1", certFolder))

	tlsConfig, err := certs.LoadTLSConfig(
		path.Join(certFolder, certs.CaCertFile),
		path.Join(certFolder, certs.ClientCertFile),
		path.Join(certFolder, certs.ClientKeyFile))
	require.NoError(t, err)
	assert.False(t, tlsConfig.InsecureSkipVerify)
	assert.NotNil(t, tlsConfig.RootCAs)
	assert.Len(t, tlsConfig.Certificates, 1)

	tlsConfig, err = certs.LoadTLSConfig("", "", "")
	require.NoError(t, err)
	assert.True(t, tlsConfig.InsecureSkipVerify)

	_, err = certs.LoadTLSConfig(path.Join(certFolder, "missing.pem"), "", "")
	assert.Error(t, err)
	// key is not a certificate
	_, err = certs.LoadTLSConfig(path.Join(certFolder, certs.CaKeyFile), "", "")
	assert.Error(t, err)
}

func TestInvalidPEM(t *testing.T) {
	logrus.Infof("--- TestInvalidPEM ---")
	_, err := certs.CertFromPEM([]byte("not a pem"))
	assert.Error(t, err)
	_, err = certs.PrivateKeyFromPEM([]byte("not a pem"))
	assert.Error(t, err)
}
