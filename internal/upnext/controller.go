// Package upnext advances the queue when an item plays to its natural
// end. Manual skips and stops never pass through here; only the render
// layer's ended signal does.
package upnext

import (
	"github.com/rs/zerolog"

	"github.com/avrillon/cadenza/internal/session"
)

// Controller listens for ended sessions and starts the next queue item.
type Controller struct {
	svc  session.Service
	sub  *session.Subscription
	log  zerolog.Logger
	stop chan struct{}
	done chan struct{}
}

func New(svc session.Service, log zerolog.Logger) *Controller {
	return &Controller{
		svc:  svc,
		sub:  svc.Subscribe(),
		log:  log,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Run processes events until Close. Call it on its own goroutine.
func (c *Controller) Run() {
	defer close(c.done)
	defer c.svc.Unsubscribe(c.sub)

	for {
		select {
		case e := <-c.sub.StateChanged:
			if e.Current == session.Ended {
				c.advance()
			}
		case <-c.sub.Done:
			return
		case <-c.stop:
			return
		}
	}
}

func (c *Controller) Close() {
	close(c.stop)
	<-c.done
}

func (c *Controller) advance() {
	if err := c.svc.Next(); err != nil {
		c.log.Warn().Err(err).Msg("auto-advance failed")
	}
}
