package pipeline

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/telco-console/internal/errors"
	"github.com/jrsteele09/telco-console/sessions"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// refreshCycle is one in-flight refresh. token, epoch and err are written once
// by the initiator before done is closed and only read after.
type refreshCycle struct {
	done  chan struct{}
	token string
	epoch uint64
	err   error
}

// awaitRefresh turns a 401 for a request sent with token sent into a token to
// replay with, joining or starting a refresh cycle as needed.
func (t *Transport) awaitRefresh(ctx context.Context, sent string) (string, uint64, error) {
	t.mu.Lock()
	session, epoch := t.store.Current()

	if t.cycle == nil && session.AccessToken != "" && session.AccessToken != sent {
		t.mu.Unlock()
		t.logger.Debug().Msg("session already refreshed, replaying with current token")
		return session.AccessToken, epoch, nil
	}

	cycle := t.cycle
	if cycle == nil {
		if session.RefreshToken == "" {
			t.mu.Unlock()
			t.store.ClearIf(epoch)
			t.logger.Warn().Msg("no refresh token, session cleared")
			return "", 0, fmt.Errorf("[Transport RoundTrip] %w", apperrors.ErrNoRefreshCredential)
		}
		cycle = &refreshCycle{done: make(chan struct{})}
		t.cycle = cycle
		role := sessions.RoleUnknown
		if session.Identity != nil {
			role = session.Identity.Role
		}
		go t.runCycle(context.WithoutCancel(ctx), cycle, session.RefreshToken, epoch, role)
	}
	t.mu.Unlock()

	t.metrics.waiting(1)
	defer t.metrics.waiting(-1)

	select {
	case <-cycle.done:
		return cycle.token, cycle.epoch, cycle.err
	case <-ctx.Done():
		return "", 0, fmt.Errorf("[Transport RoundTrip] waiting for refresh: %w", ctx.Err())
	}
}

// runCycle calls the refresh endpoint on behalf of every waiter and releases
// them all with the same result.
func (t *Transport) runCycle(ctx context.Context, cycle *refreshCycle, refreshToken string, epoch uint64, role sessions.Role) {
	ctx, cancel := context.WithTimeout(ctx, t.refreshTimeout)
	defer cancel()

	ctx, span := t.tracer.Start(ctx, "pipeline.refresh")
	defer span.End()

	t.logger.Info().Msg("refreshing access token")
	start := time.Now()
	pair, err := t.refresher.Refresh(ctx, refreshToken)
	elapsed := time.Since(start)
	if err == nil && (pair == nil || pair.AccessToken == "") {
		err = fmt.Errorf("%w: no access token", apperrors.ErrMalformedResponse)
	}

	switch {
	case err != nil:
		t.store.ClearIf(epoch)
		cycle.err = fmt.Errorf("[Transport RoundTrip] %w: %w", apperrors.ErrRefreshRejected, err)
		t.metrics.observeRefresh(outcomeRejected, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh rejected")
		t.logger.Warn().Err(err).Dur("elapsed", elapsed).Msg("refresh rejected, session cleared")

	default:
		rotated, ok := t.store.RotateTokens(epoch, pair.AccessToken, pair.RefreshToken)
		if !ok {
			t.metrics.observeRefresh(outcomeStale, elapsed)
			span.SetStatus(codes.Error, "session changed during refresh")
			// A login that happened meanwhile is used as is; a logout ends the cycle.
			if current, currentEpoch := t.store.Current(); current.Authenticated() {
				cycle.token = current.AccessToken
				cycle.epoch = currentEpoch
				t.logger.Info().Dur("elapsed", elapsed).Msg("new session during refresh, discarding refreshed tokens")
				break
			}
			cycle.err = fmt.Errorf("[Transport RoundTrip] %w", apperrors.ErrSessionCleared)
			t.logger.Info().Dur("elapsed", elapsed).Msg("session cleared during refresh, discarding refreshed tokens")
			break
		}
		cycle.token = pair.AccessToken
		cycle.epoch = rotated
		t.metrics.observeRefresh(outcomeSuccess, elapsed)
		span.SetAttributes(attribute.Bool("refresh_token.rotated", pair.RefreshToken != ""))
		t.logger.Info().Dur("elapsed", elapsed).Bool("rotated", pair.RefreshToken != "").Msg("access token refreshed")
		if role != sessions.RoleUnknown && pair.Role != "" && sessions.ParseRole(pair.Role) != role {
			t.logger.Warn().Str("session_role", role.String()).Str("refreshed_role", pair.Role).Msg("role changed on refresh, log in again to update it")
		}
	}

	t.mu.Lock()
	t.cycle = nil
	t.mu.Unlock()
	close(cycle.done)
}
