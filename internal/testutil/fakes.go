package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dokaw/task-dash-gleam/internal/domain"
)

// Queue records published messages in memory.
type Queue struct {
	mu       sync.Mutex
	Messages map[string][]string
}

func NewQueue() *Queue {
	return &Queue{Messages: map[string][]string{}}
}

func (q *Queue) IsHealthy() bool { return true }

func (q *Queue) PublishMessage(queueName, body string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.Messages[queueName] = append(q.Messages[queueName], body)
	return nil
}

func (q *Queue) ConsumeMessages(consumerName, queueName string, handler func(string)) error {
	return nil
}

func (q *Queue) Close() error { return nil }

func (q *Queue) Published(queueName string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]string{}, q.Messages[queueName]...)
}

// Checkout is a scripted domain.CheckoutProvider. Mark a session paid with
// SetPaid to drive the webhook verification path.
type Checkout struct {
	mu       sync.Mutex
	next     int
	sessions map[string]*domain.CheckoutSession
	Fail     bool
}

func NewCheckout() *Checkout {
	return &Checkout{sessions: map[string]*domain.CheckoutSession{}}
}

func (c *Checkout) CreateSession(ctx context.Context, params domain.CreateSessionParams) (*domain.CheckoutSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Fail {
		return nil, errors.New("checkout unavailable")
	}

	c.next++
	session := &domain.CheckoutSession{
		ID:  fmt.Sprintf("cs_test_%d", c.next),
		URL: fmt.Sprintf("https://checkout.example.com/%d", c.next),
	}
	c.sessions[session.ID] = session

	copied := *session
	return &copied, nil
}

func (c *Checkout) GetSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Fail {
		return nil, errors.New("checkout unavailable")
	}

	session, ok := c.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such session")
	}

	copied := *session
	return &copied, nil
}

func (c *Checkout) SetPaid(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session, ok := c.sessions[sessionID]; ok {
		session.Paid = true
	}
}
