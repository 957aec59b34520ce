// Package tls provides the TLS setup for the websocket endpoint: either
// a certificate pair from disk or Let's Encrypt via autocert.
package tls

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/antibyte/zen/pkg/configuration"
	"github.com/antibyte/zen/pkg/logger"

	"golang.org/x/crypto/acme/autocert"
)

// Settings mirror the [TLS] configuration section.
type Settings struct {
	EnableTLS         bool
	EnableLetsEncrypt bool
	Domain            string
	LetsEncryptEmail  string
	CertCacheDir      string
	CertFile          string
	KeyFile           string
	HTTPAddr          string // ACME challenges and the HTTPS redirect
	HTTPSPort         string
}

// SettingsFromConfig reads the [TLS] section.
func SettingsFromConfig() Settings {
	return Settings{
		EnableTLS:         configuration.GetBool("TLS", "enable_tls", false),
		EnableLetsEncrypt: configuration.GetBool("TLS", "enable_letsencrypt", false),
		Domain:            configuration.GetString("TLS", "domain", ""),
		LetsEncryptEmail:  configuration.GetString("TLS", "letsencrypt_email", ""),
		CertCacheDir:      configuration.GetString("TLS", "cert_cache_dir", "./certs"),
		CertFile:          configuration.GetString("TLS", "cert_file", "./certs/server.crt"),
		KeyFile:           configuration.GetString("TLS", "key_file", "./certs/server.key"),
		HTTPAddr:          configuration.GetString("TLS", "http_addr", ":80"),
		HTTPSPort:         configuration.GetString("TLS", "https_port", "443"),
	}
}

// TLSManager builds the tls.Config for the server.
type TLSManager struct {
	settings    Settings
	autocertMgr *autocert.Manager
	tlsConfig   *tls.Config
}

// NewTLSManager validates s and, when TLS is enabled, prepares the
// certificates.
func NewTLSManager(s Settings) (*TLSManager, error) {
	tm := &TLSManager{settings: s}

	if err := tm.validateConfig(); err != nil {
		return nil, fmt.Errorf("TLS configuration validation failed: %w", err)
	}
	if !s.EnableTLS {
		return tm, nil
	}

	var err error
	if s.EnableLetsEncrypt {
		err = tm.initializeLetsEncrypt()
	} else {
		err = tm.initializeManualTLS()
	}
	if err != nil {
		return nil, fmt.Errorf("TLS initialization failed: %w", err)
	}
	return tm, nil
}

func (tm *TLSManager) validateConfig() error {
	if !tm.settings.EnableTLS {
		return nil
	}
	if tm.settings.EnableLetsEncrypt {
		if strings.TrimSpace(tm.settings.Domain) == "" {
			return fmt.Errorf("domain is required when Let's Encrypt is enabled")
		}
		if strings.TrimSpace(tm.settings.LetsEncryptEmail) == "" {
			return fmt.Errorf("letsencrypt_email is required when Let's Encrypt is enabled")
		}
		return nil
	}
	if tm.settings.CertFile == "" || tm.settings.KeyFile == "" {
		return fmt.Errorf("cert_file and key_file are required")
	}
	return nil
}

func (tm *TLSManager) initializeLetsEncrypt() error {
	logger.Info(logger.AreaServer, "Initializing Let's Encrypt for domain: %s", tm.settings.Domain)

	if err := os.MkdirAll(tm.settings.CertCacheDir, 0700); err != nil {
		return fmt.Errorf("failed to create certificate cache directory: %w", err)
	}

	tm.autocertMgr = &autocert.Manager{
		Cache:      autocert.DirCache(tm.settings.CertCacheDir),
		Prompt:     autocert.AcceptTOS,
		Email:      tm.settings.LetsEncryptEmail,
		HostPolicy: autocert.HostWhitelist(tm.settings.Domain, "www."+tm.settings.Domain),
	}

	tm.tlsConfig = tm.autocertMgr.TLSConfig()
	tm.tlsConfig.MinVersion = tls.VersionTLS12
	return nil
}

func (tm *TLSManager) initializeManualTLS() error {
	logger.Info(logger.AreaServer, "Loading TLS certificate %s with key %s", tm.settings.CertFile, tm.settings.KeyFile)

	cert, err := tls.LoadX509KeyPair(tm.settings.CertFile, tm.settings.KeyFile)
	if err != nil {
		return fmt.Errorf("loading certificate: %w", err)
	}

	tm.tlsConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	return nil
}

// TLSConfig returns nil when TLS is disabled.
func (tm *TLSManager) TLSConfig() *tls.Config {
	if !tm.settings.EnableTLS {
		return nil
	}
	return tm.tlsConfig
}

// IsEnabled reports whether the server should speak TLS.
func (tm *TLSManager) IsEnabled() bool {
	return tm.settings.EnableTLS
}

// HTTPAddr is where the plain HTTP helper listens.
func (tm *TLSManager) HTTPAddr() string {
	return tm.settings.HTTPAddr
}

// HTTPHandler serves ACME challenges and redirects everything else to
// HTTPS. It returns nil when TLS is disabled.
func (tm *TLSManager) HTTPHandler() http.Handler {
	if !tm.settings.EnableTLS {
		return nil
	}
	redirect := tm.redirectHandler()
	if tm.autocertMgr != nil {
		return tm.autocertMgr.HTTPHandler(redirect)
	}
	return redirect
}

func (tm *TLSManager) redirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}

		target := "https://" + host
		if tm.settings.HTTPSPort != "" && tm.settings.HTTPSPort != "443" {
			target = "https://" + net.JoinHostPort(host, tm.settings.HTTPSPort)
		}
		target += r.URL.RequestURI()

		logger.Debug(logger.AreaServer, "Redirecting HTTP to HTTPS: %s -> %s", r.URL.String(), target)
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
}
