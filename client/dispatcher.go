package client

import (
	"errors"

	"go.uber.org/zap"

	"subrpc/protocol"
	"subrpc/transport"
)

// dispatch reads frames from sess until it closes, routing responses to the
// correlator. Responses can arrive in any order; the id routes each one to
// the goroutine that sent it. Exactly one dispatch goroutine runs per
// physical connection attempt.
func (c *Client) dispatch(sess transport.Session) {
	for frame := range sess.Frames() {
		resp, err := protocol.DecodeResponse(frame)
		if err != nil {
			// One bad frame must never kill the loop or any in-flight call.
			c.log.Warn("skipping malformed frame",
				zap.Error(err),
				zap.ByteString("frame", frame))
			c.metrics.decodeError()
			continue
		}

		if resp.Notification() {
			// Subscriptions are unsupported; a null id has no caller.
			c.log.Debug("dropping notification envelope")
			c.metrics.droppedResponse(dropNotification)
			continue
		}

		c.pending.complete(*resp.ID, resp)
	}

	c.sessionClosed(sess)
}

// sessionClosed handles the end of a session's frame stream. A session torn
// down by Disconnect or owner cancellation was already detached and needs
// nothing; an unexpected close fails the in-flight calls, drives the Error
// state, and hands the failure to the reconnect scheduler.
func (c *Client) sessionClosed(sess transport.Session) {
	c.mu.Lock()
	if c.sess != sess {
		c.mu.Unlock()
		return
	}
	c.sess = nil
	endpoint := c.endpoint
	epoch := c.epoch
	c.mu.Unlock()

	err := sess.Err()
	if err == nil {
		err = errors.New("connection closed by remote")
	}
	cerr := &transport.ConnectionError{Endpoint: endpoint, Err: err}

	c.pending.cancelAll(cerr)
	c.states.set(Status{State: StateError, Err: err.Error()})
	c.maybeReconnect(epoch)
}
