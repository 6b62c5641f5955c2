package asgardeo

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// Client talks to the Asgardeo SCIM2 API using client-credentials OAuth.
// The embedded http.Client refreshes tokens transparently.
type Client struct {
	BaseURL     string
	OAuthConfig *clientcredentials.Config
	Client      *http.Client
}

func NewClient(baseUrl string, clientId string, clientSecret string, scopes []string) *Client {
	baseUrl = strings.TrimRight(baseUrl, "/")

	oauthConfig := &clientcredentials.Config{
		ClientID:     clientId,
		ClientSecret: clientSecret,
		TokenURL:     baseUrl + "/oauth2/token",
		Scopes:       scopes,
	}

	httpClient := oauthConfig.Client(context.Background())
	httpClient.Timeout = 30 * time.Second

	return &Client{
		BaseURL:     baseUrl,
		OAuthConfig: oauthConfig,
		Client:      httpClient,
	}
}
