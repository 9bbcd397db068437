package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/FoldlyDev/foldly-sub005/utils"
)

// IdentityProfile is the verified caller identity the gateway resolves
// for every request. The core never evaluates credentials itself.
type IdentityProfile struct {
	ExternalID string
	Email      string
	Username   string
	FirstName  string
	LastName   string
	AvatarURL  string
}

// IdentityService talks to the external identity provider's management
// API. Only the best-effort post-provisioning username sync uses it; a
// failure here must never invalidate committed core state.
type IdentityService struct {
	apiURL string
	apiKey string
	client *retryablehttp.Client
}

func NewIdentityService(apiURL, apiKey string) *IdentityService {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil

	return &IdentityService{
		apiURL: apiURL,
		apiKey: apiKey,
		client: client,
	}
}

// SyncUsername pushes the chosen username back to the provider record.
func (s *IdentityService) SyncUsername(ctx context.Context, externalID, username string) error {
	if s.apiURL == "" {
		utils.LogWarning("identity sync skipped: no provider API configured")
		return nil
	}

	payload, err := json.Marshal(map[string]string{"username": username})
	if err != nil {
		return fmt.Errorf("failed to marshal identity update: %w", err)
	}

	url := fmt.Sprintf("%s/users/%s", s.apiURL, externalID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("identity provider responded with status: %s", resp.Status)
	}

	return nil
}
