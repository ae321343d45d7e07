package services

import (
	"context"
	"fmt"

	"messenger-inbox/internal/adapters/dto"
	"messenger-inbox/internal/config"
	"messenger-inbox/internal/core/domain"
	"messenger-inbox/internal/core/ports"
)

// ConfigurationError means a conversation's integration references an
// application that is no longer in the injected registry.
type ConfigurationError struct {
	IntegrationID int64
	AppID         string
}

func (e *ConfigurationError) Error() string {
	if e.AppID != "" {
		return fmt.Sprintf("no configured application %q for integration %d", e.AppID, e.IntegrationID)
	}
	return fmt.Sprintf("integration %d is not configured", e.IntegrationID)
}

// Replier posts outbound replies back to Messenger. Unlike the webhook path
// this is a direct synchronous call path: errors propagate to the caller, and
// persisting the outbound message is the caller's responsibility.
type Replier struct {
	apps         []config.FacebookApp
	integrations ports.IntegrationRepository
	graph        ports.GraphGateway
}

// NewReplier creates a reply dispatcher over an immutable app registry.
func NewReplier(apps []config.FacebookApp, integrations ports.IntegrationRepository, graph ports.GraphGateway) *Replier {
	return &Replier{
		apps:         apps,
		integrations: integrations,
		graph:        graph,
	}
}

// Reply resolves the conversation's owning app, exchanges its token for the
// stored page's token and posts the text to the stored sender. No outbound
// call is made when the app is not configured.
func (s *Replier) Reply(ctx context.Context, conv *domain.Conversation, text string) (*dto.SendResponse, error) {
	integ, err := s.integrations.GetIntegration(ctx, conv.IntegrationID)
	if err != nil {
		return nil, fmt.Errorf("load integration: %w", err)
	}
	if integ == nil {
		return nil, &ConfigurationError{IntegrationID: conv.IntegrationID}
	}

	app, ok := s.appByID(integ.AppID)
	if !ok {
		return nil, &ConfigurationError{IntegrationID: integ.ID, AppID: integ.AppID}
	}

	pageToken, err := s.graph.PageAccessToken(ctx, conv.Facebook.PageID, app.AccessToken)
	if err != nil {
		return nil, err
	}

	return s.graph.SendMessage(ctx, pageToken, conv.Facebook.SenderID, text)
}

func (s *Replier) appByID(appID string) (config.FacebookApp, bool) {
	for _, app := range s.apps {
		if app.ID == appID {
			return app, true
		}
	}
	return config.FacebookApp{}, false
}
