package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tallylabs/expensebot/internal/creds"
)

// SpreadsheetScope is the OAuth2 scope required for reading and writing
// spreadsheet data.
const SpreadsheetScope = "https://www.googleapis.com/auth/spreadsheets"

// jwtBearerGrant is the OAuth2 grant type for service account assertions.
const jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// tokenExpirySlack is how long before expiry a cached token is discarded.
const tokenExpirySlack = time.Minute

// TokenSource mints and caches OAuth2 access tokens for a Google service
// account. Tokens are obtained by signing a JWT assertion with the account's
// RSA key and exchanging it at the token endpoint.
type TokenSource struct {
	account *creds.ServiceAccount
	scope   string
	hc      *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenSource creates a token source for the given service account.
func NewTokenSource(account *creds.ServiceAccount, scope string) *TokenSource {
	return &TokenSource{
		account: account,
		scope:   scope,
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Token returns a valid access token, minting a new one when the cached
// token is missing or about to expire.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expires.Add(-tokenExpirySlack)) {
		return ts.token, nil
	}

	token, expiresIn, err := ts.exchange(ctx)
	if err != nil {
		return "", err
	}

	ts.token = token
	ts.expires = time.Now().Add(expiresIn)
	return token, nil
}

// exchange signs a JWT assertion and trades it for an access token.
func (ts *TokenSource) exchange(ctx context.Context) (string, time.Duration, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(ts.account.PrivateKey))
	if err != nil {
		return "", 0, fmt.Errorf("parsing private key: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   ts.account.ClientEmail,
		"scope": ts.scope,
		"aud":   ts.account.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	assertion := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := assertion.SignedString(key)
	if err != nil {
		return "", 0, fmt.Errorf("signing assertion: %w", err)
	}

	vals := url.Values{}
	vals.Set("grant_type", jwtBearerGrant)
	vals.Set("assertion", signed)

	req, err := http.NewRequestWithContext(ctx, "POST", ts.account.TokenURI, strings.NewReader(vals.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.hc.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token exchange failed: status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", 0, err
	}
	if tokenResp.AccessToken == "" {
		return "", 0, fmt.Errorf("token exchange returned an empty token")
	}

	expiresIn := time.Duration(tokenResp.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}

	return tokenResp.AccessToken, expiresIn, nil
}
