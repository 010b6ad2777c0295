package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// maxErrorBody limits how much of an error response is kept
const maxErrorBody = 1024

// Client updates entity states through the Home Assistant REST API
type Client struct {
	baseURL string
	token   string
	client  http.Client
	logger  *logrus.Logger
}

// PublishError is returned when Home Assistant rejects a state update
type PublishError struct {
	EntityID   string
	StatusCode int
	Body       string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("could not update %s: unexpected status code %d", e.EntityID, e.StatusCode)
}

func New(baseURL, token string, logger *logrus.Logger) *Client {
	if token == "" {
		logger.Error("SUPERVISOR_TOKEN environment variable not found")
	} else {
		logger.Infof("SUPERVISOR_TOKEN found, length: %d characters", len(token))
	}
	logger.Infof("Home Assistant API URL: %s", baseURL)

	return &Client{
		baseURL: baseURL,
		token:   token,
		client: http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// SetState creates or updates the state of entityID
func (c *Client) SetState(ctx context.Context, entityID, state string, attributes map[string]interface{}) error {
	body, err := json.Marshal(struct {
		State      string                 `json:"state"`
		Attributes map[string]interface{} `json:"attributes"`
	}{
		State:      state,
		Attributes: attributes,
	})
	if err != nil {
		return fmt.Errorf("could not marshal state of %s: %w", entityID, err)
	}

	url := fmt.Sprintf("%s/api/states/%s", c.baseURL, entityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debugf("Updating sensor %s at %s", entityID, url)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not update %s: %w", entityID, err)
	}
	defer resp.Body.Close() //nolint: errcheck

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	perr := &PublishError{
		EntityID:   entityID,
		StatusCode: resp.StatusCode,
		Body:       string(data),
	}

	log := c.logger.WithFields(logrus.Fields{
		"entity_id": entityID,
		"status":    resp.StatusCode,
		"body":      perr.Body,
	})
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		log.Error("Authentication failed, check the token and the API endpoint")
	case http.StatusForbidden:
		log.Error("Forbidden, the add-on may need additional permissions")
	case http.StatusNotFound:
		log.Error("API endpoint not found")
	default:
		log.Error("Unexpected response from Home Assistant")
	}

	return perr
}
