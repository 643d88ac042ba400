package http

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

func getTLSConfig(keyPath string, certPath string, cacertPath string, serverName string, insecure bool) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		// #nosec G402
		InsecureSkipVerify: insecure,
		ServerName:         serverName,
	}
	if keyPath != "" {
		cert, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			return nil, fmt.Errorf("fail to load certificates: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	if cacertPath != "" {
		caCert, err := os.ReadFile(cacertPath)
		if err != nil {
			return nil, fmt.Errorf("fail to load the ca certificate: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("fail to parse the ca certificate %s", cacertPath)
		}
		tlsConfig.ClientCAs = caCertPool
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return tlsConfig, nil
}
