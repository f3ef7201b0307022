package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the portion of the GitHub /user API response we care about.
// GitHub returns a much larger object — we only unmarshal the fields we need.
type GitHubUser struct {
	ID        int64  `json:"id"`         // GitHub's numeric user ID — stable, never changes
	Login     string `json:"login"`      // GitHub username
	Name      string `json:"name"`       // Display name (may be empty)
	Email     string `json:"email"`      // Primary email (empty if hidden in GitHub settings)
	AvatarURL string `json:"avatar_url"` // Profile picture URL
}

// DisplayName returns the profile name, falling back to the login when the
// user hasn't set one.
func (u *GitHubUser) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization
// Code flow.
//
// The code-for-token exchange happens server-to-server using the
// ClientSecret; the access token never touches the browser. The domain
// service never sees any of this — it only ever receives a resolved
// identity.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// callbackURL must match the "Authorization callback URL" configured on the
// GitHub OAuth App exactly, e.g. "http://localhost:8080/auth/github/callback".
//
// Scopes:
//   - "read:user" — the user's public profile (ID, login, name, avatar)
//   - "user:email" — the user's email addresses
//
// We need the email scope because email is our identity correlation key; a
// sign-in without a resolvable email cannot map to an account.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state is a random string stored in a cookie before redirecting; the
// callback verifies the returned state matches. This prevents CSRF attacks
// where an attacker completes an OAuth flow for their own account in the
// victim's browser.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// GitHub user profile.
//
// Steps:
//  1. Exchange the code for an OAuth access token (server-to-server)
//  2. Use the token to call GitHub's /user API endpoint
//  3. Unmarshal the response into a GitHubUser struct
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}
	if ghUser.Email == "" {
		// Email can be hidden on GitHub; without it we can't correlate the
		// identity to an account, so treat the sign-in as failed.
		return nil, fmt.Errorf("auth: GitHub profile has no public email")
	}

	return &ghUser, nil
}
