package aws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"simclient/internal/domain"
	"simclient/internal/logging"
)

// Session resolves credentials for one profile and hands out authenticated
// service clients. It is acquired once and read-only afterwards; the
// resolved caller principal is cached on first use.
type Session struct {
	cfg aws.Config

	mu        sync.RWMutex
	clients   map[string]interface{}
	principal *domain.Principal
}

// Options selects the credential source and endpoint region. Both are
// optional; empty values fall back to the standard credential chain.
type Options struct {
	Profile string
	Region  string
}

// NewSession loads AWS configuration for the given profile and region
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRetryMaxAttempts(5),
		config.WithRetryer(func() aws.Retryer {
			return retry.NewAdaptiveMode(func(o *retry.AdaptiveModeOptions) {
				o.StandardOptions = append(o.StandardOptions, func(so *retry.StandardOptions) {
					so.MaxBackoff = 30 * time.Second
				})
			})
		}),
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logging.LogDebug("AWS session loaded", map[string]interface{}{
		"profile": opts.Profile,
		"region":  cfg.Region,
	})

	return &Session{
		cfg:     cfg,
		clients: make(map[string]interface{}),
	}, nil
}

// IAM returns the cached IAM client
func (s *Session) IAM() *iam.Client {
	return s.client("iam", func() interface{} { return iam.NewFromConfig(s.cfg) }).(*iam.Client)
}

// STS returns the cached STS client
func (s *Session) STS() *sts.Client {
	return s.client("sts", func() interface{} { return sts.NewFromConfig(s.cfg) }).(*sts.Client)
}

// Region returns the resolved endpoint region
func (s *Session) Region() string {
	return s.cfg.Region
}

func (s *Session) client(service string, build func() interface{}) interface{} {
	s.mu.RLock()
	if client, ok := s.clients[service]; ok {
		s.mu.RUnlock()
		return client
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if client, ok := s.clients[service]; ok {
		return client
	}
	client := build()
	s.clients[service] = client
	return client
}

// CallerPrincipal resolves the session's own identity via
// sts:GetCallerIdentity. The result is cached for the session lifetime.
func (s *Session) CallerPrincipal(ctx context.Context) (domain.Principal, error) {
	s.mu.RLock()
	if s.principal != nil {
		p := *s.principal
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()

	start := time.Now()
	out, err := s.STS().GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	logging.GetMetrics().RecordAPICall("sts:GetCallerIdentity", err == nil, err)
	logging.LogAPICall("sts:GetCallerIdentity", err == nil, time.Since(start), err)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("failed to get caller identity: %w", err)
	}

	principal, err := domain.PrincipalFromARN(aws.ToString(out.Arn))
	if err != nil {
		return domain.Principal{}, fmt.Errorf("caller identity is not a simulatable principal: %w", err)
	}

	s.mu.Lock()
	s.principal = &principal
	s.mu.Unlock()

	logging.LogDebug("Resolved caller principal", map[string]interface{}{
		"principal": principal.ARN,
	})
	return principal, nil
}
