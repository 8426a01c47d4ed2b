package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"gofinances/internal/core"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleProvider signs users in with a Google account and maps the userinfo
// profile onto core.User.
type GoogleProvider struct {
	oauth       *oauth2.Config
	client      *http.Client
	userInfoURL string
}

type GoogleOption func(*GoogleProvider)

// WithHTTPClient replaces the client used for the userinfo request.
func WithHTTPClient(c *http.Client) GoogleOption {
	return func(p *GoogleProvider) { p.client = c }
}

// WithUserInfoURL points the provider at another userinfo endpoint.
func WithUserInfoURL(u string) GoogleOption {
	return func(p *GoogleProvider) { p.userInfoURL = u }
}

// WithEndpoint replaces the OAuth endpoint, mainly for tests.
func WithEndpoint(e oauth2.Endpoint) GoogleOption {
	return func(p *GoogleProvider) { p.oauth.Endpoint = e }
}

func NewGoogleProvider(cfg GoogleConfig, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
		client:      &http.Client{Timeout: 10 * time.Second},
		userInfoURL: defaultUserInfoURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AuthCodeURL is where the user is sent to consent.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token and fetches the profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (core.User, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return core.User{}, fmt.Errorf("exchange code: %w", err)
	}
	return p.ProfileFromToken(ctx, token.AccessToken)
}

type googleUserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	GivenName string `json:"given_name"`
	Picture   string `json:"picture"`
}

// ProfileFromToken fetches the profile for an access token obtained by any
// flow, including the implicit flow used by mobile clients.
func (p *GoogleProvider) ProfileFromToken(ctx context.Context, accessToken string) (core.User, error) {
	if accessToken == "" {
		return core.User{}, fmt.Errorf("empty access token")
	}

	u, err := url.Parse(p.userInfoURL)
	if err != nil {
		return core.User{}, fmt.Errorf("userinfo url: %w", err)
	}
	q := u.Query()
	q.Set("alt", "json")
	q.Set("access_token", accessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return core.User{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return core.User{}, fmt.Errorf("get userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return core.User{}, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return core.User{}, fmt.Errorf("decode userinfo: %w", err)
	}

	user := core.User{
		ID:    info.ID,
		Email: info.Email,
		Name:  info.GivenName,
		Photo: info.Picture,
	}
	if err := user.Validate(); err != nil {
		return core.User{}, fmt.Errorf("userinfo: %w", err)
	}
	return user, nil
}
