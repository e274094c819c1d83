package app

import (
	"context"
	"fmt"

	authDomain "github.com/capsulen/capsulen/internal/auth/domain"
	authService "github.com/capsulen/capsulen/internal/auth/service"
)

// SigningKey returns the Ed25519 key pair used to sign session tokens.
func (c *Container) SigningKey() (*authDomain.SigningKey, error) {
	c.signingKeyInit.Do(func() {
		key, err := c.initSigningKey()
		if err != nil {
			c.initErrors["signingKey"] = err
			return
		}
		c.signingKey = key
	})
	if storedErr, exists := c.initErrors["signingKey"]; exists {
		return nil, storedErr
	}
	return c.signingKey, nil
}

// TokenAuthority returns the token authority instance.
func (c *Container) TokenAuthority() (authService.TokenAuthority, error) {
	c.tokenAuthorityInit.Do(func() {
		authority, err := c.initTokenAuthority()
		if err != nil {
			c.initErrors["tokenAuthority"] = err
			return
		}
		c.tokenAuthority = authority
	})
	if storedErr, exists := c.initErrors["tokenAuthority"]; exists {
		return nil, storedErr
	}
	return c.tokenAuthority, nil
}

// initSigningKey resolves the signing key in order of preference: a plain
// base64 seed from the environment, a KMS-wrapped seed, and finally a fresh
// ephemeral key.
func (c *Container) initSigningKey() (*authDomain.SigningKey, error) {
	if c.config.SigningKeySeed != "" {
		key, err := authDomain.NewSigningKeyFromBase64Seed(c.config.SigningKeySeed)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key seed: %w", err)
		}
		return key, nil
	}

	if c.config.SigningKeySeedEncrypted != "" && c.config.KMSKeyURI != "" {
		kmsService := authService.NewKMSService()
		key, err := kmsService.DecryptSigningKeySeed(
			context.Background(),
			c.config.KMSKeyURI,
			c.config.SigningKeySeedEncrypted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap signing key seed: %w", err)
		}
		return key, nil
	}

	key, err := authDomain.GenerateSigningKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	c.Logger().Warn("no signing key seed configured, tokens will not survive a restart")
	return key, nil
}

// initTokenAuthority creates the token authority with the signing key.
func (c *Container) initTokenAuthority() (authService.TokenAuthority, error) {
	key, err := c.SigningKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key for token authority: %w", err)
	}
	return authService.NewTokenAuthority(key, c.config.TokenExpiration), nil
}
