package domain

// Queue is the push channel for realtime notification fan-out. Delivery is
// at-least-once; consumers treat messages as a cue to re-fetch, never as the
// source of truth.
type Queue interface {
	IsHealthy() bool
	PublishMessage(queueName, body string) error
	ConsumeMessages(consumerName, queueName string, handler func(string)) error
	Close() error
}
