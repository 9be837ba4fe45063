package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fieldclock/agent-go/internal/domain/attendance"
	"github.com/fieldclock/agent-go/internal/domain/device"
	"github.com/fieldclock/agent-go/internal/domain/syncer"
	"github.com/fieldclock/agent-go/internal/pkg/clock"
)

// Options configures the sync coordinator.
type Options struct {
	DeviceID string
	// Timeout bounds each network call; a timed-out call is a transport
	// failure and applies no ledger mutation.
	Timeout time.Duration
	// BackoffInitial and BackoffMax bound the retry schedule.
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	// MaxFailures is the consecutive-failure cap before the sync-degraded
	// signal fires and automatic retries pause until the next trigger.
	MaxFailures int
}

type CoordinatorImpl struct {
	ledger    attendance.EventLedger
	devices   device.DeviceRepository
	transport syncer.Transport
	clock     clock.Clock
	opts      Options

	// network gates periodic triggers; explicit triggers always pass.
	network func() bool
	// onDegraded surfaces the sync-degraded signal to the UI shell.
	onDegraded func(error)

	// triggers is deliberately 1-buffered: triggers arriving while a batch
	// is in flight coalesce into a single follow-up run.
	triggers chan string

	mu             sync.Mutex
	state          syncer.State
	inFlight       bool
	failures       int
	degraded       bool
	lastErr        string
	lastSyncMillis int64
	retryBackoff   *backoff.ExponentialBackOff
	retryTimer     *time.Timer
	retryDelay     time.Duration

	// lastBatchKey/lastBatchFingerprint let a resubmission of the exact
	// same record set after a lost response reuse its idempotency key, so
	// the server can deduplicate it.
	lastBatchKey         string
	lastBatchFingerprint string
}

func NewCoordinator(
	ledger attendance.EventLedger,
	deviceRepo device.DeviceRepository,
	transport syncer.Transport,
	clk clock.Clock,
	opts Options,
	network func() bool,
	onDegraded func(error),
) *CoordinatorImpl {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.BackoffInitial
	b.MaxInterval = opts.BackoffMax
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return &CoordinatorImpl{
		ledger:       ledger,
		devices:      deviceRepo,
		transport:    transport,
		clock:        clk,
		opts:         opts,
		network:      network,
		onDegraded:   onDegraded,
		triggers:     make(chan string, 1),
		state:        syncer.StateIdle,
		retryBackoff: b,
	}
}

// TriggerSync implements syncer.Notifier.
func (c *CoordinatorImpl) TriggerSync(reason string) {
	if reason == syncer.TriggerPeriodic && c.network != nil && !c.network() {
		slog.Debug("Periodic sync skipped, network unavailable")
		return
	}

	select {
	case c.triggers <- reason:
	default:
		// A run is already queued; this trigger coalesces into it.
	}
}

// Run implements syncer.Coordinator.
func (c *CoordinatorImpl) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			if c.retryTimer != nil {
				c.retryTimer.Stop()
			}
			c.mu.Unlock()
			return
		case reason := <-c.triggers:
			if err := c.SyncNow(ctx); err != nil {
				slog.Warn("Sync attempt failed", "reason", reason, "error", err)
			}
		}
	}
}

// SyncNow implements syncer.Coordinator. At most one batch is in flight at a
// time; a concurrent call returns immediately.
func (c *CoordinatorImpl) SyncNow(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	c.state = syncer.StateSyncing
	c.mu.Unlock()

	err := c.runBatch(ctx)

	c.mu.Lock()
	c.inFlight = false
	if c.state == syncer.StateSyncing {
		c.state = syncer.StateIdle
	}
	c.mu.Unlock()
	return err
}

func (c *CoordinatorImpl) runBatch(ctx context.Context) error {
	events, err := c.ledger.ListUnsynced(ctx)
	if err != nil {
		return fmt.Errorf("failed to load unsynced events: %w", err)
	}
	if len(events) == 0 {
		c.recordSuccess()
		return nil
	}

	req, fingerprint, err := c.buildBatch(events)
	if err != nil {
		return err
	}

	localSend := c.clock.NowMillis()

	pushCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	resp, err := c.transport.PushEvents(pushCtx, req)
	cancel()

	if errors.Is(err, syncer.ErrConfigMissing) {
		// Not configured yet: a no-op, never a failure.
		slog.Debug("Sync skipped, no endpoint configured")
		return nil
	}
	if err != nil {
		c.recordFailure(err, req.IdempotencyKey, fingerprint)
		return err
	}

	return c.applyResponse(ctx, resp, localSend)
}

// buildBatch assembles the wire batch from unsynced ledger entries and picks
// its idempotency key, reusing the previous key when the exact same record
// set is being resubmitted after a failed or lost exchange.
func (c *CoordinatorImpl) buildBatch(events []attendance.Event) (syncer.SyncRequest, string, error) {
	records := make([]syncer.SyncRecord, 0, len(events))
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		var marks json.RawMessage
		if ev.Marks != nil {
			encoded, err := json.Marshal(ev.Marks)
			if err != nil {
				return syncer.SyncRequest{}, "", fmt.Errorf("failed to encode computed marks: %w", err)
			}
			marks = encoded
		}
		records = append(records, syncer.SyncRecord{
			ID:                    ev.ID,
			EmployeeID:            ev.EmployeeID,
			Date:                  ev.Date,
			EventKind:             string(ev.Kind),
			DeviceTimestampMillis: ev.CapturedAtMillis,
			DeviceID:              ev.DeviceID,
			CaptureMode:           ev.CaptureMode,
			RawPayload:            ev.RawPayload,
			GpsLat:                ev.Latitude,
			GpsLon:                ev.Longitude,
			Note:                  ev.Note,
			ComputedMarks:         marks,
		})
		ids = append(ids, ev.ID)
	}
	fingerprint := strings.Join(ids, ",")

	c.mu.Lock()
	key := c.lastBatchKey
	if key == "" || fingerprint != c.lastBatchFingerprint {
		key = fmt.Sprintf("%s-%d", c.opts.DeviceID, c.clock.NowMillis())
	}
	c.mu.Unlock()

	return syncer.SyncRequest{
		Records:        records,
		DeviceID:       c.opts.DeviceID,
		IdempotencyKey: key,
	}, fingerprint, nil
}

// applyResponse reconciles a well-formed server response: partial success is
// normal, records neither confirmed nor errored stay pending.
func (c *CoordinatorImpl) applyResponse(ctx context.Context, resp syncer.SyncResponse, localSendMillis int64) error {
	if len(resp.ProcessedRecordIDs) > 0 {
		if err := c.ledger.MarkSynced(ctx, resp.ProcessedRecordIDs, resp.ServerTimeMillis); err != nil {
			return fmt.Errorf("failed to mark events synced: %w", err)
		}
	}
	for _, recErr := range resp.Errors {
		cause := fmt.Sprintf("%v: %s", syncer.ErrServerRejected, recErr.Error)
		if err := c.ledger.MarkError(ctx, recErr.RecordID, cause); err != nil {
			return fmt.Errorf("failed to mark event errored: %w", err)
		}
	}

	skew := resp.ServerTimeMillis - localSendMillis
	if err := c.devices.UpdateSkew(ctx, c.opts.DeviceID, skew); err != nil {
		slog.Warn("Failed to store clock skew", "error", err)
	}

	c.recordSuccess()
	slog.Info("Sync batch applied",
		"processed", len(resp.ProcessedRecordIDs),
		"errored", len(resp.Errors),
		"skew_millis", skew,
	)
	return nil
}

func (c *CoordinatorImpl) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures = 0
	c.degraded = false
	c.lastErr = ""
	c.lastSyncMillis = c.clock.NowMillis()
	c.lastBatchKey = ""
	c.lastBatchFingerprint = ""
	c.retryBackoff.Reset()
	c.retryDelay = 0
	c.state = syncer.StateIdle
}

func (c *CoordinatorImpl) recordFailure(cause error, batchKey, fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures++
	c.lastErr = cause.Error()
	c.lastBatchKey = batchKey
	c.lastBatchFingerprint = fingerprint

	if c.opts.MaxFailures > 0 && c.failures >= c.opts.MaxFailures {
		// Retry budget exhausted: surface the degraded signal and wait for
		// the next external or periodic trigger instead of self-retrying.
		c.degraded = true
		c.state = syncer.StateIdle
		c.retryBackoff.Reset()
		if c.onDegraded != nil {
			go c.onDegraded(cause)
		}
		slog.Error("Sync degraded, retry budget exhausted", "failures", c.failures, "error", cause)
		return
	}

	c.state = syncer.StateBackoff
	delay := c.retryBackoff.NextBackOff()
	c.retryDelay = delay
	if c.retryTimer != nil {
		c.retryTimer.Stop()
	}
	c.retryTimer = time.AfterFunc(delay, func() {
		c.TriggerSync(syncer.TriggerRetry)
	})
	slog.Warn("Sync failed, retry scheduled", "failures", c.failures, "retry_in", delay, "error", cause)
}

// scheduledRetryDelay reports the delay picked for the pending retry timer,
// zero when no retry is scheduled.
func (c *CoordinatorImpl) scheduledRetryDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryDelay
}

// Status implements syncer.Coordinator.
func (c *CoordinatorImpl) Status(ctx context.Context) syncer.Status {
	pending, err := c.ledger.CountUnsynced(ctx)
	if err != nil {
		slog.Warn("Failed to count pending events", "error", err)
	}

	var skew int64
	if dev, err := c.devices.Get(ctx, c.opts.DeviceID); err == nil {
		skew = dev.ClockSkewMillis
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return syncer.Status{
		State:               c.state,
		PendingCount:        pending,
		LastSyncAtMillis:    c.lastSyncMillis,
		LastError:           c.lastErr,
		ConsecutiveFailures: c.failures,
		Degraded:            c.degraded,
		ClockSkewMillis:     skew,
	}
}
