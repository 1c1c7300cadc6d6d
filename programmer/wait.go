package programmer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/moffa90/go-flexfx/protocol"
)

// send encodes and writes one record without waiting for a reply.
func (p *Programmer) send(rec protocol.Property) error {
	if err := p.channel.Send(protocol.Encode(rec)); err != nil {
		return fmt.Errorf("send %s: %w", rec.Command(), err)
	}
	p.config.Metrics.FrameSent(rec.Command())
	return nil
}

// transact sends a record and blocks until the device echoes its command.
func (p *Programmer) transact(ctx context.Context, rec protocol.Property) (protocol.Property, error) {
	if err := p.send(rec); err != nil {
		return protocol.Property{}, err
	}
	return p.await(ctx, rec.Command())
}

// await polls the channel until a well-formed reply carries cmd. Malformed
// frames and replies carrying any other command are discarded. There is no retry. Without an ack timeout the wait ends only on
// the matching reply, a channel error, or ctx cancellation.
func (p *Programmer) await(ctx context.Context, cmd protocol.Command) (protocol.Property, error) {
	parent := ctx
	if p.config.AckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.AckTimeout)
		defer cancel()
	}

	start := time.Now()
	limiter := p.pollLimiter()

	for {
		if ctx.Err() != nil {
			return protocol.Property{}, p.waitError(parent, ctx, cmd)
		}

		msg, ok, err := p.channel.Receive()
		if err != nil {
			return protocol.Property{}, fmt.Errorf("wait for %s: %w", cmd, err)
		}
		if !ok {
			// Wait fails early when the deadline is closer than one
			// interval; the loop then polls unpaced until ctx is done.
			_ = limiter.Wait(ctx)
			continue
		}

		// Malformed frames decode to the zero record, so they are dropped
		// before the compare or they would acknowledge command 0.
		if ferr := protocol.Validate(msg); ferr != nil {
			p.config.Metrics.ReplyDiscarded(cmd, protocol.CmdNone)
			p.logDebug("discarded malformed reply", "expected", cmd.String(), "error", ferr.Error())
			continue
		}

		reply := protocol.Decode(msg)
		if reply.Command() == cmd {
			p.config.Metrics.AckReceived(cmd, time.Since(start))
			return reply, nil
		}

		p.config.Metrics.ReplyDiscarded(cmd, reply.Command())
		p.logDebug("discarded reply", "expected", cmd.String(), "got", reply.Command().String())
	}
}

// pollLimiter paces empty polls. A zero interval polls continuously but
// still observes cancellation.
func (p *Programmer) pollLimiter() *rate.Limiter {
	if p.config.PollInterval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(p.config.PollInterval), 1)
}

func (p *Programmer) waitError(parent, ctx context.Context, cmd protocol.Command) error {
	if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		p.logError("acknowledgement timed out", "command", cmd.String(), "timeout", p.config.AckTimeout.String())
		return &AckTimeoutError{Command: cmd, Timeout: p.config.AckTimeout}
	}
	return fmt.Errorf("wait for %s: cancelled: %w", cmd, parent.Err())
}
