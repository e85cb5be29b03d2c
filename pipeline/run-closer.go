package pipeline

import (
	"sync"
)

// RunCloser tracks the channels used to maintain run status and whether the run is shutdown or not.
type RunCloser struct {
	closed            bool
	shutdownRequested bool
	mu                sync.Mutex
	chanStatus        chan RunStatus
	chanShutdown      chan error
}

func NewRunCloser(chanStatus chan RunStatus, chanShutdown chan error) *RunCloser {
	return &RunCloser{chanStatus: chanStatus, chanShutdown: chanShutdown}
}

// SendStatus sends s on chanStatus unless the channels are closed.
func (c *RunCloser) SendStatus(s RunStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.chanStatus <- s
	}
}

// CloseChannels closes chanStatus and chanShutdown inside a mutex, sending statusToSend first if it is not nil.
func (c *RunCloser) CloseChannels(statusToSend *RunStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed { // if the status channel is still open...
		if statusToSend != nil { // if we have something to send...
			c.chanStatus <- *statusToSend
		}
		close(c.chanStatus) // causes the status consumer to exit.
		close(c.chanShutdown)
		c.closed = true
	}
}

// RequestShutdown asks the run to stop. It returns false if the run is already finished.
// The optional err is logged by the cleanup handler.
func (c *RunCloser) RequestShutdown(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if !c.shutdownRequested {
		c.shutdownRequested = true
		c.chanShutdown <- err // buffered; only sent once.
	}
	return true
}

// ShutdownRequested is true once a stop has been requested.
func (c *RunCloser) ShutdownRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shutdownRequested
}

// ChannelsAreOpen returns true until CloseChannels is called.
func (c *RunCloser) ChannelsAreOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}
