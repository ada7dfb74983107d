package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
)

type Client struct {
	client     *pubsub.Client
	projectID  string
	cfg        config.PubSubConfig
	requireSub bool
}

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("pubsub payments topic is required")
	errSubRequired       = errors.New("pubsub analytics subscription is required")
)

// Options selects which resources NewClient verifies up front.
type Options struct {
	// RequireSubscription is set by consumers; publishers only need the topic.
	RequireSubscription bool
}

// NewClient creates a Pub/Sub v2 client and checks the payments topic (and
// optionally the analytics subscription) exist.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, opts Options, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}
	if strings.TrimSpace(cfg.PaymentsTopic) == "" {
		return nil, errTopicRequired
	}
	if opts.RequireSubscription && strings.TrimSpace(cfg.AnalyticsSubscription) == "" {
		return nil, errSubRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:     psClient,
		projectID:  gcp.ProjectID,
		cfg:        cfg,
		requireSub: opts.RequireSubscription,
	}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", cfg.PaymentsTopic), "pubsub client initialized")
	}
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}

func (c *Client) ensureTopicExists(ctx context.Context) error {
	fullName := topicResourceName(c.projectID, c.cfg.PaymentsTopic)
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", c.cfg.PaymentsTopic)
		}
		return fmt.Errorf("checking topic %q: %w", c.cfg.PaymentsTopic, err)
	}
	return nil
}

func (c *Client) ensureSubscriptionExists(ctx context.Context) error {
	fullName := subscriptionResourceName(c.projectID, c.cfg.AnalyticsSubscription)
	_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: fullName})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("subscription %q does not exist", c.cfg.AnalyticsSubscription)
		}
		return fmt.Errorf("checking subscription %q: %w", c.cfg.AnalyticsSubscription, err)
	}
	return nil
}

// Publisher returns a new publisher handle for the given topic ID or resource
// name. Message ordering is on: every event is keyed by its order id. Callers
// own the handle and must Stop it.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := topicResourceName(c.projectID, name)
	if fullName == "" {
		return nil
	}
	p := c.client.Publisher(fullName)
	p.EnableMessageOrdering = true
	return p
}

// PaymentsPublisher returns the publisher for the configured payments topic.
func (c *Client) PaymentsPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.PaymentsTopic)
}

// AnalyticsSubscriber returns the subscriber for the analytics subscription.
func (c *Client) AnalyticsSubscriber() *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := subscriptionResourceName(c.projectID, c.cfg.AnalyticsSubscription)
	if fullName == "" {
		return nil
	}
	return c.client.Subscriber(fullName)
}

// Ping verifies the configured topic (and subscription for consumers) exist.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	if err := c.ensureTopicExists(ctx); err != nil {
		return err
	}
	if c.requireSub {
		return c.ensureSubscriptionExists(ctx)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func subscriptionResourceName(projectID, name string) string {
	return resourceName(projectID, "subscriptions", name)
}

func topicResourceName(projectID, name string) string {
	return resourceName(projectID, "topics", name)
}

func resourceName(projectID, kind, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/"+kind+"/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/%s/%s", p, kind, n)
}
