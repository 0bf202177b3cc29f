package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const assertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// federatedTokenSource exchanges a signer-produced client assertion for an
// access token via RFC 7523's client_assertion grant. This is the identity
// federation path used when no client secret is configured.
type federatedTokenSource struct {
	ctx      context.Context
	clientID string
	tokenURL string
	scopes   []string
	signer   AssertionSigner

	http *http.Client
}

func (f *federatedTokenSource) Token() (*oauth2.Token, error) {
	assertion, err := f.signer.SignAssertion(f.ctx, f.tokenURL, f.clientID)
	if err != nil {
		return nil, fmt.Errorf("sign client assertion: %w", err)
	}

	form := url.Values{
		"grant_type":            {"client_credentials"},
		"client_id":             {f.clientID},
		"client_assertion_type": {assertionType},
		"client_assertion":      {assertion},
	}
	if len(f.scopes) > 0 {
		form.Set("scope", strings.Join(f.scopes, " "))
	}

	httpClient := f.http
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(f.ctx, http.MethodPost, f.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange client assertion: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	return &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		Expiry:      time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}

// SigningKeyAssertionSigner signs a standard RFC 7523 client assertion JWT
// with an RSA private key, the shape workload identity federation expects.
type SigningKeyAssertionSigner struct {
	Key   interface{} // *rsa.PrivateKey, accepted as interface{} so tests can stub it
	KeyID string
}

func (s *SigningKeyAssertionSigner) SignAssertion(ctx context.Context, tokenURL, clientID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    clientID,
		Subject:   clientID,
		Audience:  jwt.ClaimStrings{tokenURL},
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.KeyID

	return token.SignedString(s.Key)
}
