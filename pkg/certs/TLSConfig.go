package certs

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path"

	"github.com/sirupsen/logrus"
)

// LoadTLSConfig creates the TLS configuration of a protocol client.
// 1. If a CA certificate is not available then insecure-skip-verify is used to allow
// connection to an unverified server (leap of faith)
// 2. Mutual TLS authentication is used when a client certificate and key are available
//  caCertFile path of the CA certificate, or "" to not verify the server
//  clientCertFile and clientKeyFile paths of the client certificate, or "" to not use mutual TLS
func LoadTLSConfig(caCertFile string, clientCertFile string, clientKeyFile string) (*tls.Config, error) {
	tlsConfig := &tls.Config{}
	if caCertFile != "" {
		caCertPEM, err := os.ReadFile(caCertFile)
		if err != nil {
			logrus.Errorf("LoadTLSConfig: Unable to read CA certificate: %s", err)
			return nil, err
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCertPEM) {
			return nil, fmt.Errorf("no certificates in CA file '%s'", caCertFile)
		}
		logrus.Infof("LoadTLSConfig: Using CA certificate in '%s' for server verification", caCertFile)
		tlsConfig.RootCAs = caCertPool
	} else {
		logrus.Infof("LoadTLSConfig: No CA certificate. InsecureSkipVerify used")
		tlsConfig.InsecureSkipVerify = true
	}

	if clientCertFile != "" && clientKeyFile != "" {
		clientCert, err := tls.LoadX509KeyPair(clientCertFile, clientKeyFile)
		if err != nil {
			logrus.Errorf("LoadTLSConfig: Invalid client certificate or key: %s", err)
			return nil, err
		}
		logrus.Infof("LoadTLSConfig: Using client certificate from '%s' for mutual auth", clientCertFile)
		tlsConfig.Certificates = []tls.Certificate{clientCert}
	}
	return tlsConfig, nil
}

// LoadServerTLSConfig creates the TLS configuration of a server from the server certificate
// and key in the certificate folder. Client certificates signed by the CA in that folder
// are verified when presented.
//  certFolder containing the ServerCertFile, ServerKeyFile and CaCertFile
func LoadServerTLSConfig(certFolder string) (*tls.Config, error) {
	serverCert, err := tls.LoadX509KeyPair(
		path.Join(certFolder, ServerCertFile), path.Join(certFolder, ServerKeyFile))
	if err != nil {
		logrus.Errorf("LoadServerTLSConfig: Invalid server certificate or key: %s", err)
		return nil, err
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		ClientAuth:   tls.VerifyClientCertIfGiven,
		MinVersion:   tls.VersionTLS12,
	}
	caCertPEM, err := os.ReadFile(path.Join(certFolder, CaCertFile))
	if err == nil {
		caCertPool := x509.NewCertPool()
		caCertPool.AppendCertsFromPEM(caCertPEM)
		tlsConfig.ClientCAs = caCertPool
	}
	return tlsConfig, nil
}
