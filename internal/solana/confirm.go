package solana

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Confirmation errors.
var (
	// ErrTransactionFailed is returned when the transaction landed with an error.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrBlockhashExpired is returned when the block height passed the
	// transaction's last valid block height without confirmation.
	ErrBlockhashExpired = errors.New("transaction expired: block height exceeded")
)

// ConfirmTransaction waits for signature to reach commitment.
// With a WebSocket endpoint configured it subscribes to the signature and
// falls back to polling if the subscription cannot be used; otherwise it polls
// getSignatureStatuses. The wait is bounded by the confirm timeout.
func (c *HTTPClient) ConfirmTransaction(ctx context.Context, signature string, anchor *Blockhash, commitment Commitment) error {
	if c.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.confirmTimeout)
		defer cancel()
	}

	if c.wsEndpoint != "" {
		err := c.confirmBySubscription(ctx, signature, commitment)
		if err == nil || errors.Is(err, ErrTransactionFailed) || ctx.Err() != nil {
			return err
		}
		c.logger.Warn().Err(err).Str("signature", signature).Msg("signature subscription unavailable, polling")
	}

	return c.confirmByPolling(ctx, signature, anchor, commitment)
}

// confirmBySubscription waits for a signatureNotification.
func (c *HTTPClient) confirmBySubscription(ctx context.Context, signature string, commitment Commitment) error {
	ws, err := NewWSClient(ctx, c.wsEndpoint, c.wsConfig)
	if err != nil {
		return err
	}
	defer ws.Close()

	ch, err := ws.SubscribeSignature(ctx, signature, commitment)
	if err != nil {
		return err
	}

	// The transaction may have landed before the subscription was registered.
	if done, err := c.checkStatus(ctx, signature, commitment); done {
		return err
	}

	select {
	case notif, ok := <-ch:
		if !ok {
			return fmt.Errorf("signature subscription closed")
		}
		if notif.Err != nil {
			return fmt.Errorf("%w: %v", ErrTransactionFailed, notif.Err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("confirm %s: %w", signature, ctx.Err())
	}
}

// confirmByPolling polls getSignatureStatuses until the commitment is reached
// or the anchor blockhash expires.
func (c *HTTPClient) confirmByPolling(ctx context.Context, signature string, anchor *Blockhash, commitment Commitment) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		if done, err := c.checkStatus(ctx, signature, commitment); done {
			return err
		}

		if anchor != nil && anchor.LastValidBlockHeight > 0 {
			height, err := c.GetBlockHeight(ctx)
			if err == nil && height > anchor.LastValidBlockHeight {
				return fmt.Errorf("confirm %s: %w", signature, ErrBlockhashExpired)
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirm %s: %w", signature, ctx.Err())
		case <-ticker.C:
		}
	}
}

// checkStatus reports done=true when the signature failed or reached commitment.
// Transport errors are treated as "not yet" so the caller keeps waiting.
func (c *HTTPClient) checkStatus(ctx context.Context, signature string, commitment Commitment) (bool, error) {
	statuses, err := c.GetSignatureStatuses(ctx, []string{signature})
	if err != nil || len(statuses) == 0 || statuses[0] == nil {
		return false, nil
	}

	status := statuses[0]
	if status.Err != nil {
		return true, fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
	}
	if commitment.SatisfiedBy(status.ConfirmationStatus) {
		return true, nil
	}
	return false, nil
}
