package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
)

// CreateECDSAKeys creates an asymmetric P-256 key set
// Returns a private key that contains its associated public key
func CreateECDSAKeys() *ecdsa.PrivateKey {
	privKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	return privKey
}

// PrivateKeyFromPEM converts a PEM encoded PKCS8 private key into an ECDSA key object
// See also PrivateKeyToPEM for the opposite.
func PrivateKeyFromPEM(pemEncodedPriv []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemEncodedPriv)
	if block == nil {
		return nil, errors.New("not a valid PEM string")
	}
	rawPrivateKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	privateKey, ok := rawPrivateKey.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("PEM is not an ECDSA key")
	}
	return privateKey, nil
}

// PrivateKeyToPEM converts a private key into its PEM encoded PKCS8 format
func PrivateKeyToPEM(privateKey *ecdsa.PrivateKey) ([]byte, error) {
	x509Encoded, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: x509Encoded}), nil
}
