// Package remote implements the client for the remote persistence API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"medsync/config"
	deliverycontext "medsync/internal/delivery/context"
	"medsync/internal/domain/entity"
	domainerrors "medsync/internal/domain/errors"
	"medsync/internal/domain/service"

	"github.com/pkg/errors"
)

// One endpoint per entity type, create/update semantics folded into an upsert.
const (
	pathMedications     = "/api/v1/medications"
	pathSchedules       = "/api/v1/schedules"
	pathAdherenceEvents = "/api/v1/adherence-events"
	pathEmergencyEvents = "/api/v1/emergency-events"
)

// syncClient implements service.RemoteStore against the REST persistence API.
// Writes are at-least-once; the Idempotency-Key header lets a tolerant backend
// dedup a replayed change.
type syncClient struct {
	baseURL     string
	healthPath  string
	httpClient  *http.Client
	credentials service.CredentialSource
	logger      *slog.Logger
}

// NewSyncClient creates a remote store client from configuration.
func NewSyncClient(cfg *config.Config, credentials service.CredentialSource, logger *slog.Logger) (service.RemoteStore, error) {
	if cfg.Remote.BaseURL == "" {
		return nil, errors.New("remote base URL must be provided")
	}

	return &syncClient{
		baseURL:    strings.TrimRight(cfg.Remote.BaseURL, "/"),
		healthPath: cfg.Remote.HealthPath,
		httpClient: &http.Client{
			Timeout: cfg.Remote.Timeout,
		},
		credentials: credentials,
		logger:      logger,
	}, nil
}

// changeEnvelope is the wire shape of a replayed pending change.
type changeEnvelope struct {
	ChangeID   string         `json:"change_id"`
	EntityType string         `json:"entity_type"`
	Payload    map[string]any `json:"payload"`
	CreatedAt  string         `json:"created_at"`
}

// UpsertMedication replays a medication change against the remote API.
func (c *syncClient) UpsertMedication(ctx context.Context, change *entity.PendingChange) error {
	return c.post(ctx, pathMedications, change)
}

// UpsertSchedule replays a schedule change against the remote API.
func (c *syncClient) UpsertSchedule(ctx context.Context, change *entity.PendingChange) error {
	return c.post(ctx, pathSchedules, change)
}

// RecordAdherenceEvent replays an adherence event against the remote API.
func (c *syncClient) RecordAdherenceEvent(ctx context.Context, change *entity.PendingChange) error {
	return c.post(ctx, pathAdherenceEvents, change)
}

// RecordEmergencyEvent replays an emergency event against the remote API.
func (c *syncClient) RecordEmergencyEvent(ctx context.Context, change *entity.PendingChange) error {
	return c.post(ctx, pathEmergencyEvents, change)
}

// Healthy reports whether the remote API answers its health endpoint.
func (c *syncClient) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.healthPath, nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// post sends one change to the given path, distinguishing transport failures
// (network unavailable, entry retried later) from application-level rejection
// (remote rejected, retrying without a data fix would repeat the failure).
func (c *syncClient) post(ctx context.Context, path string, change *entity.PendingChange) error {
	body, err := json.Marshal(changeEnvelope{
		ChangeID:   change.ID.String(),
		EntityType: string(change.EntityType),
		Payload:    change.Payload,
		CreatedAt:  change.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode change envelope")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build remote request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", change.ID.String())

	token, err := c.credentials.BearerToken(ctx)
	if err != nil {
		return domainerrors.ErrNetworkUnavailable.WrapMessage("no usable credential for remote call")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	// Propagate X-Request-Id for tracing
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainerrors.ErrNetworkUnavailable.WrapMessage(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	c.logger.Warn("Remote API rejected change",
		slog.String("change_id", change.ID.String()),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	return domainerrors.ErrRemoteRejected.WithDetails(
		string(detail),
	).WrapMessage("remote returned status " + resp.Status)
}
