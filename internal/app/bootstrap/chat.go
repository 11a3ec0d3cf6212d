package bootstrap

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wolfman30/appointment-ai-site/internal/chat"
	appconfig "github.com/wolfman30/appointment-ai-site/internal/config"
	"github.com/wolfman30/appointment-ai-site/internal/observability/metrics"
	"github.com/wolfman30/appointment-ai-site/internal/webchat"
	"github.com/wolfman30/appointment-ai-site/pkg/logging"
)

// BuildAssistant wires the HTTP client for the remote assistant endpoint.
func BuildAssistant(cfg *appconfig.Config, logger *logging.Logger) (*chat.HTTPAssistant, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	endpoint := strings.TrimSpace(cfg.AssistantEndpoint)
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("bootstrap: invalid assistant endpoint %q", cfg.AssistantEndpoint)
	}

	logger.Info("assistant configured", "endpoint", endpoint, "timeout", cfg.AssistantTimeout.String())
	return chat.NewHTTPAssistant(endpoint, chat.WithClientLogger(logger)), nil
}

// BuildSession creates one chat session with the configured timeout and
// greeting. m may be nil.
func BuildSession(cfg *appconfig.Config, id string, assistant chat.Assistant, m *metrics.ChatMetrics, logger *logging.Logger) *chat.Session {
	return chat.NewSession(id, assistant,
		chat.WithTimeout(cfg.AssistantTimeout),
		chat.WithMetrics(m),
		chat.WithLogger(logger),
		chat.WithGreeting(cfg.DemoGreeting),
	)
}

// BuildSessionFactory builds the chat session behind each page load. The
// remote conversation id is ASSISTANT_SESSION_ID when set, else the
// registry key.
func BuildSessionFactory(cfg *appconfig.Config, assistant chat.Assistant, m *metrics.ChatMetrics, logger *logging.Logger) webchat.SessionFactory {
	return func(key string) *chat.Session {
		id := key
		if cfg.AssistantSessionID != "" {
			id = cfg.AssistantSessionID
		}
		return BuildSession(cfg, id, assistant, m, logger)
	}
}
