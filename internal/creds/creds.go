// Package creds encodes and decodes the Google service account credential
// document that the deployment pipeline stages as GOOGLE_CREDS_JSON.
//
// The hosting platform rejects multiline secret values, so the JSON document
// is carried as a single base64 line: encoded once, with any newlines the
// encoder or the source file introduced stripped out. The bot reverses the
// transform at startup.
package creds

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyDocument is returned when the encoded document is empty.
	ErrEmptyDocument = errors.New("credential document is empty")
	// ErrInvalidBase64 is returned when the document is not valid base64.
	ErrInvalidBase64 = errors.New("credential document is not valid base64")
	// ErrInvalidJSON is returned when the decoded document is not valid JSON.
	ErrInvalidJSON = errors.New("credential document is not valid JSON")
	// ErrMissingField is returned when a required credential field is absent.
	ErrMissingField = errors.New("credential document is missing a required field")
)

// DefaultTokenURI is the Google OAuth2 token endpoint used when the
// credential document does not carry its own.
const DefaultTokenURI = "https://oauth2.googleapis.com/token"

// ServiceAccount is the subset of a Google service account key file the bot
// needs to mint access tokens.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id,omitempty"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri,omitempty"`
}

// Encode serializes a JSON document to the wire form staged on the platform:
// standard base64 with every newline stripped, so the value is a single line.
func Encode(document []byte) string {
	encoded := base64.StdEncoding.EncodeToString(document)
	// StdEncoding emits no newlines, but sources that pre-encode with line
	// wrapping (base64(1) wraps at 76 columns) must still produce the same
	// single-line value.
	return stripNewlines(encoded)
}

// Decode reverses Encode: strips newlines, decodes base64 (padded or raw) and
// returns the raw JSON document.
func Decode(encoded string) ([]byte, error) {
	cleaned := stripNewlines(strings.TrimSpace(encoded))
	if cleaned == "" {
		return nil, ErrEmptyDocument
	}

	document, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		// Some encoders omit padding; accept raw base64 as well.
		document, err = base64.RawStdEncoding.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
		}
	}

	return document, nil
}

// ParseServiceAccount decodes the wire form and unmarshals the service
// account document, validating the fields token minting depends on.
func ParseServiceAccount(encoded string) (*ServiceAccount, error) {
	document, err := Decode(encoded)
	if err != nil {
		return nil, err
	}

	var sa ServiceAccount
	if err := json.Unmarshal(document, &sa); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if sa.ClientEmail == "" {
		return nil, fmt.Errorf("%w: client_email", ErrMissingField)
	}
	if sa.PrivateKey == "" {
		return nil, fmt.Errorf("%w: private_key", ErrMissingField)
	}
	if sa.TokenURI == "" {
		sa.TokenURI = DefaultTokenURI
	}

	return &sa, nil
}

func stripNewlines(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
