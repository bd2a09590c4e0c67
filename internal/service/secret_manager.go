package service

import (
	"context"
	"fmt"

	"humanizer/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// SecretResolver fills vendor credentials that were left out of the
// environment from Secret Manager.
type SecretResolver interface {
	Resolve(ctx context.Context, cfg *config.Config) error
	Close() error
}

type secretResolver struct {
	projectID string
	access    func(ctx context.Context, name string) (string, error)
	close     func() error
	logger    zerolog.Logger
}

func NewSecretResolver(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (SecretResolver, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID is required when Secret Manager is enabled")
	}

	var opts []option.ClientOption
	if cfg.GCPCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsFile))
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	access := func(ctx context.Context, name string) (string, error) {
		result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if err != nil {
			return "", err
		}
		return string(result.Payload.Data), nil
	}
	return newSecretResolver(cfg.GCPProjectID, access, client.Close, logger), nil
}

func newSecretResolver(projectID string, access func(context.Context, string) (string, error), closeFn func() error, logger zerolog.Logger) *secretResolver {
	return &secretResolver{
		projectID: projectID,
		access:    access,
		close:     closeFn,
		logger:    logger.With().Str("service", "SecretResolver").Logger(),
	}
}

// secretTargets lists the config fields that may come from Secret Manager,
// keyed by secret ID.
func secretTargets(cfg *config.Config) map[string]*string {
	return map[string]*string{
		"gemini-api-key":       &cfg.GeminiAPIKey,
		"ai-detector-api-key":  &cfg.AIDetectorAPIKey,
		"paystack-secret-key":  &cfg.PaystackSecretKey,
		"google-client-secret": &cfg.GoogleClientSecret,
		"session-secret":       &cfg.SessionSecret,
		"smtp-password":        &cfg.SMTPPassword,
	}
}

func (r *secretResolver) Resolve(ctx context.Context, cfg *config.Config) error {
	for id, target := range secretTargets(cfg) {
		if *target != "" {
			continue
		}
		name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", r.projectID, id)
		value, err := r.access(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("failed to access secret %s: %w", id, ctx.Err())
			}
			// Features that need the value report it as unconfigured.
			r.logger.Warn().Err(err).Str("secret", id).Msg("Secret not available")
			continue
		}
		*target = value
		r.logger.Debug().Str("secret", id).Msg("Loaded secret from Secret Manager")
	}
	return nil
}

func (r *secretResolver) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}
