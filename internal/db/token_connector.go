package db

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/belaz/pkg/belaz"
)

// TokenProvider abstracts cloud token acquisition for database authentication.
type TokenProvider interface {
	// GetToken acquires a short-lived token used as the PostgreSQL password.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider without secrets.
	String() string
}

// tokenExpiryWarning is how close to expiry a fresh token triggers a warning.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector implements belaz.Connector for cloud providers
// that authenticate with short-lived tokens (AWS IAM, Azure Entra ID).
// A fresh token is acquired for every connection, so each table load
// gets a token valid from the moment it connects.
type TokenBasedConnector struct {
	config        *belaz.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	logger        belaz.Logger
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName appears in error and warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *belaz.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger belaz.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		logger:        logger,
	}
}

// Connect acquires a token and opens one connection with it as the password.
func (c *TokenBasedConnector) Connect(ctx context.Context) (belaz.DBConnection, error) {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s token: %w: %w", c.providerName, belaz.ErrConnectionFailed, err)
	}

	if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning && c.logger != nil {
		c.logger.Warn("%s token expires in %v", c.providerName, remaining.Round(time.Second))
	}

	withToken := *c.config
	withToken.Password = token
	conn, err := connect(ctx, &withToken, c.logger)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
