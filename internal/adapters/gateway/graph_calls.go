package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"messenger-inbox/internal/adapters/dto"
)

// PageAccessToken exchanges a user/app access token for the page-scoped token
// of one page. First hop of the credential chain.
func (c *Client) PageAccessToken(ctx context.Context, pageID, userToken string) (string, error) {
	params := url.Values{}
	params.Set("fields", "access_token")

	raw, err := c.Request(ctx, http.MethodGet, pageID, userToken, params, nil)
	if err != nil {
		return "", err
	}

	var page struct {
		ID          string `json:"id"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return "", &PlatformError{Message: "parse page token response", Err: err}
	}
	if page.AccessToken == "" {
		return "", &PlatformError{Message: "page token missing in response"}
	}

	slog.Debug("Obtained page access token", "page_id", pageID)
	return page.AccessToken, nil
}

// UserProfile fetches a Messenger user's profile fields with a page token.
// Second hop of the credential chain.
func (c *Client) UserProfile(ctx context.Context, userID, pageToken string) (*dto.UserProfile, error) {
	params := url.Values{}
	params.Set("fields", "first_name,last_name,profile_pic")

	raw, err := c.Request(ctx, http.MethodGet, userID, pageToken, params, nil)
	if err != nil {
		return nil, err
	}

	var profile dto.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, &PlatformError{Message: "parse profile response", Err: err}
	}

	return &profile, nil
}

// sendMessageRequest is the Send API payload.
type sendMessageRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	MessagingType string `json:"messaging_type"`
}

// SendMessage posts a text reply to a page-scoped recipient via
// POST /me/messages, authenticated with a page token.
func (c *Client) SendMessage(ctx context.Context, pageToken, recipientID, text string) (*dto.SendResponse, error) {
	payload := sendMessageRequest{MessagingType: "RESPONSE"}
	payload.Recipient.ID = recipientID
	payload.Message.Text = text

	raw, err := c.Request(ctx, http.MethodPost, "me/messages", pageToken, nil, payload)
	if err != nil {
		return nil, err
	}

	var sendResp dto.SendResponse
	if err := json.Unmarshal(raw, &sendResp); err != nil {
		// HTTP 200 means the send went through even if the envelope changed shape.
		slog.Warn("Failed to parse send response", "error", err, "body", string(raw))
		return &dto.SendResponse{}, nil
	}

	slog.Info("Message sent",
		"recipient_id", recipientID,
		"message_id", sendResp.MessageID,
	)
	return &sendResp, nil
}

// PageList returns the pages the authorized user owns (id and name only).
// Consumed by the integration setup flow outside this core.
func (c *Client) PageList(ctx context.Context, userToken string) ([]dto.Page, error) {
	params := url.Values{}
	params.Set("limit", "100")

	raw, err := c.Request(ctx, http.MethodGet, "me/accounts", userToken, params, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Data []dto.Page `json:"data"`
	}
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, &PlatformError{Message: "parse page list response", Err: err}
	}

	return response.Data, nil
}
