// Package certs with TLS configuration of protocol clients and creation of a self signed
// certificate chain using ECDSA signing, for use with test Things.
package certs

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCertDuration is the validity of created certificates
const DefaultCertDuration = time.Hour * 24 * 365

// Standard client and server certificate filenames all stored in PEM format
const (
	CaCertFile     = "caCert.pem" // CA that signed the server and client certificates
	CaKeyFile      = "caKey.pem"
	ServerCertFile = "serverCert.pem"
	ServerKeyFile  = "serverKey.pem"
	ClientCertFile = "clientCert.pem"
	ClientKeyFile  = "clientKey.pem"
)

// CreateCertificateBundle creates a CA with a server and client certificate in the given folder.
// Intended for testing with TLS enabled Things. Existing files are overwritten.
//  hostnames of the server, comma separated. Localhost is always included.
//  clientID is the CommonName of the client certificate
//  certFolder to write the PEM files to
func CreateCertificateBundle(hostnames string, clientID string, certFolder string) error {
	caCert, caKey, err := CreateCA()
	if err != nil {
		return err
	}
	serverKey := CreateECDSAKeys()
	serverCert, err := CreateServerCert(hostnames, &serverKey.PublicKey, caCert, caKey)
	if err != nil {
		return err
	}
	clientKey := CreateECDSAKeys()
	clientCert, err := CreateClientCert(clientID, &clientKey.PublicKey, caCert, caKey)
	if err != nil {
		return err
	}
	files := []struct {
		name string
		key  *ecdsa.PrivateKey
		cert *x509.Certificate
	}{
		{CaCertFile, nil, caCert}, {CaKeyFile, caKey, nil},
		{ServerCertFile, nil, serverCert}, {ServerKeyFile, serverKey, nil},
		{ClientCertFile, nil, clientCert}, {ClientKeyFile, clientKey, nil},
	}
	for _, file := range files {
		var pemData []byte
		perm := os.FileMode(0644)
		if file.key != nil {
			pemData, err = PrivateKeyToPEM(file.key)
			perm = 0600
		} else {
			pemData = CertToPEM(file.cert)
		}
		if err == nil {
			err = os.WriteFile(path.Join(certFolder, file.name), pemData, perm)
		}
		if err != nil {
			logrus.Errorf("CreateCertificateBundle: Failed writing %s: %s", file.name, err)
			return err
		}
	}
	return nil
}

// CreateCA creates a self signed CA certificate and its private key for signing
// server and client certificates.
func CreateCA() (*x509.Certificate, *ecdsa.PrivateKey, error) {
	rootTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"WoST"},
			Locality:     []string{"WoST Zone"},
			CommonName:   "WoST Test CA",
		},
		NotBefore: time.Now().Add(-10 * time.Second),
		NotAfter:  time.Now().Add(DefaultCertDuration),
		// CA cert can be used to sign certificate and revocation lists
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLenZero:        true,
	}
	privKey := CreateECDSAKeys()
	caCertDer, err := x509.CreateCertificate(rand.Reader, rootTemplate, rootTemplate, &privKey.PublicKey, privKey)
	if err != nil {
		logrus.Errorf("CreateCA: Unable to create CA cert: %s", err)
		return nil, nil, err
	}
	caCert, err := x509.ParseCertificate(caCertDer)
	return caCert, privKey, err
}

// CreateServerCert creates a server certificate signed by the CA
//  hosts contains one or more DNS or IP addresses, comma separated. Localhost is always added.
//  pubKey is the server public key
func CreateServerCert(hosts string, pubKey *ecdsa.PublicKey,
	caCert *x509.Certificate, caKey *ecdsa.PrivateKey) (*x509.Certificate, error) {

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"WoST"},
			CommonName:   "WoST Test Thing",
		},
		NotBefore:   time.Now().Add(-10 * time.Second),
		NotAfter:    time.Now().Add(DefaultCertDuration),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:    []string{"localhost"},
	}
	for _, h := range strings.Split(hosts, ",") {
		if h == "" {
			continue
		} else if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}
	return signCert(template, pubKey, caCert, caKey)
}

// CreateClientCert creates a client certificate for mutual authentication, signed by the CA
//  clientID used as the CommonName
//  pubKey is the client public key
func CreateClientCert(clientID string, pubKey *ecdsa.PublicKey,
	caCert *x509.Certificate, caKey *ecdsa.PrivateKey) (*x509.Certificate, error) {

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"WoST"},
			CommonName:   clientID,
		},
		NotBefore:             time.Now().Add(-10 * time.Second),
		NotAfter:              time.Now().Add(DefaultCertDuration),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}
	return signCert(template, pubKey, caCert, caKey)
}

func signCert(template *x509.Certificate, pubKey *ecdsa.PublicKey,
	caCert *x509.Certificate, caKey *ecdsa.PrivateKey) (*x509.Certificate, error) {
	certDer, err := x509.CreateCertificate(rand.Reader, template, caCert, pubKey, caKey)
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(certDer)
}

// CertToPEM converts a certificate to PEM encoding
func CertToPEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

// CertFromPEM converts a PEM certificate to x509 instance
func CertFromPEM(certPEM []byte) (*x509.Certificate, error) {
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, errors.New("CertFromPEM: pem.Decode failed")
	}
	return x509.ParseCertificate(certBlock.Bytes)
}
