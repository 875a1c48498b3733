package auth

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

const (
	// Strava OAuth endpoints
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
)

// Scopes required for our app (Strava uses comma-separated scopes)
var Scopes = []string{
	"read,activity:read_all",
}

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://challenge.example.com/auth/callback"
}

// NewOAuthConfig creates an oauth2.Config from our Config
func NewOAuthConfig(cfg Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      Scopes,
	}
}

// Athlete is the identity Strava attaches to a token exchange response
type Athlete struct {
	ID          int64
	DisplayName string
}

// ExtractAthlete pulls the athlete's id and name from the token extras.
// Strava includes the athlete object in its token response.
func ExtractAthlete(token *oauth2.Token) (Athlete, error) {
	raw, ok := token.Extra("athlete").(map[string]interface{})
	if !ok {
		return Athlete{}, fmt.Errorf("token response has no athlete object")
	}

	id, ok := raw["id"].(float64)
	if !ok || id == 0 {
		return Athlete{}, fmt.Errorf("token response has no athlete id")
	}

	first, _ := raw["firstname"].(string)
	last, _ := raw["lastname"].(string)
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		name = fmt.Sprintf("Athlete %d", int64(id))
	}

	return Athlete{ID: int64(id), DisplayName: name}, nil
}
