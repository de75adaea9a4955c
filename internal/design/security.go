package design

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownSecurityType = errors.New("unknown security type")

var SecurityTypes = []string{"oauth2", "jwt", "apikey", "rbac"}

type SecurityImplementation struct {
	Type string `json:"type" yaml:"type"`

	Flows                 []string       `json:"flows,omitempty" yaml:"flows,omitempty"`
	Scopes                []string       `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	TokenEndpoint         string         `json:"tokenEndpoint,omitempty" yaml:"tokenEndpoint,omitempty"`
	AuthorizationEndpoint string         `json:"authorizationEndpoint,omitempty" yaml:"authorizationEndpoint,omitempty"`
	RevocationEndpoint    string         `json:"revocationEndpoint,omitempty" yaml:"revocationEndpoint,omitempty"`
	IntrospectionEndpoint string         `json:"introspectionEndpoint,omitempty" yaml:"introspectionEndpoint,omitempty"`
	Security              map[string]any `json:"security,omitempty" yaml:"security,omitempty"`

	Algorithm    string              `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	Issuer       string              `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Audience     string              `json:"audience,omitempty" yaml:"audience,omitempty"`
	Expiration   string              `json:"expiration,omitempty" yaml:"expiration,omitempty"`
	RefreshToken bool                `json:"refreshToken,omitempty" yaml:"refreshToken,omitempty"`
	Claims       map[string][]string `json:"claims,omitempty" yaml:"claims,omitempty"`

	Location  string `json:"location,omitempty" yaml:"location,omitempty"`
	KeyName   string `json:"keyName,omitempty" yaml:"keyName,omitempty"`
	KeyLength int    `json:"keyLength,omitempty" yaml:"keyLength,omitempty"`
	Hashing   string `json:"hashing,omitempty" yaml:"hashing,omitempty"`
	Rotation  string `json:"rotation,omitempty" yaml:"rotation,omitempty"`

	Roles       []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Inheritance bool     `json:"inheritance,omitempty" yaml:"inheritance,omitempty"`
	Enforcement string   `json:"enforcement,omitempty" yaml:"enforcement,omitempty"`
	Storage     string   `json:"storage,omitempty" yaml:"storage,omitempty"`
}

// Security returns the reference implementation for kind, matched without
// regard to case.
func Security(kind string) (SecurityImplementation, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "oauth2":
		return SecurityImplementation{
			Type:                  "OAuth 2.0",
			Flows:                 []string{"authorization_code", "client_credentials"},
			Scopes:                []string{"read", "write"},
			TokenEndpoint:         "/oauth/token",
			AuthorizationEndpoint: "/oauth/authorize",
			RevocationEndpoint:    "/oauth/revoke",
			IntrospectionEndpoint: "/oauth/introspect",
			Security: map[string]any{
				"pkce":           true,
				"stateParameter": true,
				"tokenExpiry":    "3600 seconds",
			},
		}, nil
	case "jwt":
		return SecurityImplementation{
			Type:         "JWT Bearer Token",
			Algorithm:    "RS256",
			Issuer:       "api-service",
			Audience:     "api-users",
			Expiration:   "1h",
			RefreshToken: true,
			Claims: map[string][]string{
				"standard": {"iss", "sub", "aud", "exp", "iat"},
				"custom":   {"role", "permissions"},
			},
		}, nil
	case "apikey":
		return SecurityImplementation{
			Type:      "API Key",
			Location:  "header",
			KeyName:   "X-API-Key",
			KeyLength: 32,
			Hashing:   "SHA-256",
			Rotation:  "90 days",
		}, nil
	case "rbac":
		return SecurityImplementation{
			Type:        "Role-Based Access Control",
			Roles:       []string{"admin", "user", "viewer"},
			Permissions: []string{"read", "write", "delete"},
			Inheritance: true,
			Enforcement: "Middleware-based",
			Storage:     "Database with caching",
		}, nil
	default:
		return SecurityImplementation{}, fmt.Errorf("%w: %s", ErrUnknownSecurityType, kind)
	}
}
