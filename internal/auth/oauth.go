package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

// Supported identity providers.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// OAuthProviderConfig holds one provider's client registration.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Configured reports whether the provider can be used.
func (c OAuthProviderConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// OAuthConfig holds all provider registrations.
type OAuthConfig struct {
	Google OAuthProviderConfig
	GitHub OAuthProviderConfig
}

var (
	googleEndpoint = oauth2.Endpoint{
		AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	}
	githubEndpoint = oauth2.Endpoint{
		AuthURL:  "https://github.com/login/oauth/authorize",
		TokenURL: "https://github.com/login/oauth/access_token",
	}
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	githubUserURL     = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
)

// ErrUnknownProvider indicates an unsupported or unconfigured provider name.
var ErrUnknownProvider = errors.New("auth: unknown oauth provider")

func (c OAuthConfig) clientFor(provider string) (*oauth2.Config, error) {
	switch provider {
	case ProviderGoogle:
		if !c.Google.Configured() {
			return nil, ErrUnknownProvider
		}
		return &oauth2.Config{
			ClientID:     c.Google.ClientID,
			ClientSecret: c.Google.ClientSecret,
			RedirectURL:  c.Google.RedirectURL,
			Endpoint:     googleEndpoint,
			Scopes:       []string{"openid", "email", "profile"},
		}, nil
	case ProviderGitHub:
		if !c.GitHub.Configured() {
			return nil, ErrUnknownProvider
		}
		return &oauth2.Config{
			ClientID:     c.GitHub.ClientID,
			ClientSecret: c.GitHub.ClientSecret,
			RedirectURL:  c.GitHub.RedirectURL,
			Endpoint:     githubEndpoint,
			Scopes:       []string{"read:user", "user:email"},
		}, nil
	default:
		return nil, ErrUnknownProvider
	}
}

// ComposeOAuthState encodes the state parameter sent to the provider. The
// optional post-login redirect path rides along as "{state}|{path}" so the
// callback can always recover it.
func ComposeOAuthState(state, redirectAfter string) string {
	if redirectAfter == "" {
		return state
	}
	return state + "|" + redirectAfter
}

// ParseOAuthState splits a state parameter back into the store key and the
// optional redirect path.
func ParseOAuthState(param string) (state, redirectAfter string) {
	if key, redirect, found := strings.Cut(param, "|"); found {
		return key, redirect
	}
	return param, ""
}

// OAuthUserInfo is the identity returned by a provider after code exchange.
type OAuthUserInfo struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
}

type googleUserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type githubUserInfo struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// fetchUserInfo retrieves the caller's identity from the provider using the
// exchanged access token. The HTTP client is injectable for tests.
func fetchUserInfo(ctx context.Context, client *http.Client, provider, accessToken string) (*OAuthUserInfo, error) {
	switch provider {
	case ProviderGoogle:
		return fetchGoogleUserInfo(ctx, client, accessToken)
	case ProviderGitHub:
		return fetchGitHubUserInfo(ctx, client, accessToken)
	default:
		return nil, ErrUnknownProvider
	}
}

func fetchGoogleUserInfo(ctx context.Context, client *http.Client, accessToken string) (*OAuthUserInfo, error) {
	var info googleUserInfo
	if err := getJSON(ctx, client, googleUserInfoURL, accessToken, &info); err != nil {
		return nil, fmt.Errorf("auth: fetch google userinfo: %w", err)
	}
	name := info.Name
	if name == "" {
		name = info.Email
	}
	return &OAuthUserInfo{
		Provider:    ProviderGoogle,
		ProviderID:  info.Sub,
		Email:       info.Email,
		DisplayName: name,
	}, nil
}

func fetchGitHubUserInfo(ctx context.Context, client *http.Client, accessToken string) (*OAuthUserInfo, error) {
	var info githubUserInfo
	if err := getJSON(ctx, client, githubUserURL, accessToken, &info); err != nil {
		return nil, fmt.Errorf("auth: fetch github user: %w", err)
	}
	email := info.Email
	if email == "" {
		// Private emails require the dedicated endpoint.
		var emails []githubEmail
		if err := getJSON(ctx, client, githubEmailsURL, accessToken, &emails); err != nil {
			return nil, fmt.Errorf("auth: fetch github emails: %w", err)
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}
	name := info.Name
	if name == "" {
		name = info.Login
	}
	return &OAuthUserInfo{
		Provider:    ProviderGitHub,
		ProviderID:  strconv.FormatInt(info.ID, 10),
		Email:       email,
		DisplayName: name,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
