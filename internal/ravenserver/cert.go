package ravenserver

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
)

// CertificateThumbprint returns the lower-case hex SHA-256 fingerprint of
// the first certificate in the PEM file at path. Key blocks in the same file
// are skipped.
func CertificateThumbprint(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is caller configuration
	if err != nil {
		return "", fmt.Errorf("read client certificate: %w", err)
	}

	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return "", ErrInvalidConfig.Errorf("parse client certificate %s: %w", path, err)
		}
		sum := sha256.Sum256(cert.Raw)
		return hex.EncodeToString(sum[:]), nil
	}
	return "", ErrInvalidConfig.Errorf("no certificate found in %s", path)
}
