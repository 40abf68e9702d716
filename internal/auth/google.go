package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var errMissingUserInfo = errors.New("google returned no user info")

// GoogleIdentity is the subset of the OpenID userinfo response we keep.
type GoogleIdentity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// IdentityProvider runs the OAuth code flow against an external provider.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (GoogleIdentity, error)
}

type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Identify exchanges the authorization code and fetches the user's profile.
func (g *GoogleProvider) Identify(ctx context.Context, code string) (GoogleIdentity, error) {
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return GoogleIdentity{}, err
	}
	resp, err := g.config.Client(ctx, tok).Do(req)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return GoogleIdentity{}, fmt.Errorf("fetch userinfo: status %d: %s", resp.StatusCode, body)
	}
	var id GoogleIdentity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return GoogleIdentity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if id.Subject == "" || id.Email == "" {
		return GoogleIdentity{}, errMissingUserInfo
	}
	return id, nil
}
