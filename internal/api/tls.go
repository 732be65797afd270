package api

import (
	"crypto/tls"
	"fmt"
)

// TLSConfig holds TLS certificate paths from server.yaml.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// NewTLSConfig returns nil unless both paths are set.
func NewTLSConfig(certFile, keyFile string) *TLSConfig {
	if certFile == "" || keyFile == "" {
		return nil
	}
	return &TLSConfig{CertFile: certFile, KeyFile: keyFile}
}

// Enabled returns true if TLS is configured.
func (c *TLSConfig) Enabled() bool {
	return c != nil && c.CertFile != "" && c.KeyFile != ""
}

// Load builds a tls.Config from the cert and key files.
func (c *TLSConfig) Load() (*tls.Config, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("tls not configured")
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
