// Package cache manages server-side cached contexts on the Gemini API.
// A cache carries the session's documents and system instruction so the
// per-stage prompts stay small.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	apperrors "github.com/interviewprep-dev/interviewprep/pkg/prep/errors"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/session"
)

// Block is one labeled document fed into a cache.
type Block struct {
	Label string
	Text  string
}

// Service is the contract the orchestrator needs from a context cache
// backend. Create is never retried automatically: a retry would upload
// and bill the documents again.
type Service interface {
	// Create uploads the blocks and system instruction as a cached
	// context on the tier's model and returns a handle to it.
	Create(ctx context.Context, tier session.Tier, model, systemInstruction string, blocks []Block, ttl time.Duration) (*session.CacheHandle, error)

	// Resolve verifies the handle is still known to the remote side.
	// An unknown or expired handle yields a CACHE_EXPIRED error.
	Resolve(ctx context.Context, handle *session.CacheHandle) error

	// Delete releases the remote cache. Best-effort: failures are
	// logged, never returned.
	Delete(ctx context.Context, handle *session.CacheHandle)
}

// Manager implements Service against the Gemini cached-content API.
type Manager struct {
	client *genai.Client
	logger *slog.Logger
}

// NewManager creates a cache manager over a Gemini client.
func NewManager(client *genai.Client, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{client: client, logger: logger}
}

// Create uploads a cached context and returns its handle.
func (m *Manager) Create(ctx context.Context, tier session.Tier, model, systemInstruction string, blocks []Block, ttl time.Duration) (*session.CacheHandle, error) {
	parts := make([]*genai.Part, 0, len(blocks))
	for _, block := range blocks {
		parts = append(parts, &genai.Part{
			Text: fmt.Sprintf("[%s]\n%s", block.Label, block.Text),
		})
	}

	cacheConfig := &genai.CreateCachedContentConfig{
		DisplayName: fmt.Sprintf("interviewprep-%s", tier),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		Contents: []*genai.Content{
			{Role: "user", Parts: parts},
		},
		TTL: ttl,
	}

	created, err := m.client.Caches.Create(ctx, model, cacheConfig)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeCacheCreate,
			fmt.Sprintf("failed to create %s context cache", tier), err)
	}

	now := time.Now()
	handle := &session.CacheHandle{
		ID:        created.Name,
		Tier:      tier,
		Model:     model,
		CreatedAt: now,
		TTL:       ttl,
		ExpiresAt: now.Add(ttl),
	}
	if !created.ExpireTime.IsZero() {
		handle.ExpiresAt = created.ExpireTime
	}

	m.logger.Info("context cache created",
		"tier", string(tier), "model", model, "cache", handle.ID, "expires_at", handle.ExpiresAt)
	return handle, nil
}

// Resolve checks that the remote side still knows the handle.
func (m *Manager) Resolve(ctx context.Context, handle *session.CacheHandle) error {
	if handle == nil {
		return expiredError(session.Tier(""), nil)
	}

	_, err := m.client.Caches.Get(ctx, handle.ID, &genai.GetCachedContentConfig{})
	if err != nil {
		if isUnknownCache(err) {
			return expiredError(handle.Tier, err)
		}
		return apperrors.New(apperrors.ErrCodeGeneration,
			fmt.Sprintf("failed to look up %s context cache", handle.Tier), err)
	}
	return nil
}

// Delete releases the remote cache, logging failures at warn level.
func (m *Manager) Delete(ctx context.Context, handle *session.CacheHandle) {
	if handle == nil {
		return
	}
	_, err := m.client.Caches.Delete(ctx, handle.ID, &genai.DeleteCachedContentConfig{})
	if err != nil {
		m.logger.Warn("failed to delete context cache; it will expire by TTL",
			"tier", string(handle.Tier), "cache", handle.ID, "error", err)
		return
	}
	m.logger.Debug("context cache deleted", "tier", string(handle.Tier), "cache", handle.ID)
}

func expiredError(tier session.Tier, cause error) error {
	msg := "context cache no longer exists"
	if tier != "" {
		msg = fmt.Sprintf("%s context cache no longer exists", tier)
	}
	return apperrors.NewRemediable(apperrors.ErrCodeCacheExpired, msg,
		apperrors.RemediationRestart, cause)
}

// isUnknownCache reports whether the API rejected the handle itself.
// Expired caches surface as permission denied (403) or not found (404).
func isUnknownCache(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 403 || apiErr.Code == 404
	}
	return false
}
