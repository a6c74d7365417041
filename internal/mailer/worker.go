package mailer

import "log"

// Pool delivers emails off the request path. Every send is best-effort:
// delivery failures are logged and never surfaced to the caller.
type Pool struct {
	jobs chan Message
	quit chan struct{}
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		jobs: make(chan Message, 64),
		quit: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.run(i)
	}
	return p
}

func (p *Pool) run(id int) {
	for {
		select {
		case msg := <-p.jobs:
			if err := send(msg); err != nil {
				log.Printf("[MAIL] [ERROR] worker %d delivery to %s failed: %v", id, msg.To, err)
				continue
			}
			log.Printf("[MAIL] [INFO] worker %d delivered %q to %s", id, msg.Subject, msg.To)
		case <-p.quit:
			return
		}
	}
}

// Enqueue queues a message without blocking the request; if the buffer is
// full the message is dropped with a log line. Returns whether the message
// made it onto the queue.
func (p *Pool) Enqueue(msg Message) bool {
	select {
	case p.jobs <- msg:
		return true
	default:
		log.Printf("[MAIL] [ERROR] queue full, dropping %q to %s", msg.Subject, msg.To)
		return false
	}
}

func (p *Pool) Stop() {
	close(p.quit)
}
