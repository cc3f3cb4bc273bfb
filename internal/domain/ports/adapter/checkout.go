package adapter

import "context"

// CheckoutSession is the slice of the processor's session object this service
// cares about.
type CheckoutSession struct {
	ID            string
	URL           string // hosted payment page the payer is redirected to
	Customer      string
	PaymentIntent string
}

// CheckoutGateway abstracts the card-payment processor.
type CheckoutGateway interface {
	Name() string
	// CreateSession opens a hosted checkout session carrying ref as the
	// client reference the processor echoes back on completion.
	CreateSession(ctx context.Context, ref string, amount int64, description, successURL, cancelURL string) (*CheckoutSession, error)
	// FindByReference locates a completed session by its client reference.
	// Returns nil (no error) when no completed session exists yet.
	FindByReference(ctx context.Context, ref string) (*CheckoutSession, error)
}
