// Package tlsmaterial installs per-domain TLS certificate material onto
// disk, writing the private key through a scoped secret exposure so the
// key bytes never outlive the write.
package tlsmaterial

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/irgordon/kari-agent/internal/klog"
	"github.com/irgordon/kari-agent/internal/secret"
	"github.com/irgordon/kari-agent/internal/validate"
)

// Install creates <tlsStorageDir>/<domain> at 0750, writes fullchain.pem at
// 0644, then writes privkey.pem inside a scoped exposure of privKey at mode
// 0600, fsyncing before close. privKey is destroyed immediately after,
// regardless of outcome. A failed privkey write removes the partial file.
func Install(tlsStorageDir, domain, fullchainPEM string, privKey *secret.Secret) error {
	defer privKey.Destroy()

	if !validate.Identifier(domain) {
		return fmt.Errorf("tlsmaterial: invalid domain %q", domain)
	}

	domainDir := filepath.Join(tlsStorageDir, domain)
	if err := os.MkdirAll(domainDir, 0o750); err != nil {
		return fmt.Errorf("tlsmaterial: create %s: %w", domainDir, err)
	}

	fullchainPath := filepath.Join(domainDir, "fullchain.pem")
	if err := os.WriteFile(fullchainPath, []byte(fullchainPEM), 0o644); err != nil {
		return fmt.Errorf("tlsmaterial: write fullchain: %w", err)
	}

	keyPath := filepath.Join(domainDir, "privkey.pem")
	if err := writeKey(keyPath, privKey); err != nil {
		_ = os.Remove(keyPath)
		return err
	}

	klog.WithComponent("tlsmaterial").Info().Str("domain", domain).Msg("installed certificate")
	return nil
}

func writeKey(path string, key *secret.Secret) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("tlsmaterial: open %s: %w", path, err)
	}

	result, useErr := key.Use(func(b []byte) secret.NonBorrowing {
		if _, err := f.Write(b); err != nil {
			return secret.Done{Err: err}
		}
		return secret.Done{Err: f.Sync()}
	})
	closeErr := f.Close()

	if useErr != nil {
		return fmt.Errorf("tlsmaterial: expose private key: %w", useErr)
	}
	if done, ok := result.(secret.Done); ok && done.Err != nil {
		return fmt.Errorf("tlsmaterial: write private key: %w", done.Err)
	}
	if closeErr != nil {
		return fmt.Errorf("tlsmaterial: close private key file: %w", closeErr)
	}
	return nil
}
