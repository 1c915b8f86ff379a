package billing

import (
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// StripeClient реализует StripeAPI поверх официального SDK.
type StripeClient struct {
	api *client.API
}

// NewStripeClient создает клиент платёжного провайдера.
func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

func (c *StripeClient) GetSubscription(id string) (*stripe.Subscription, error) {
	return c.api.Subscriptions.Get(id, nil)
}

func (c *StripeClient) ListSubscriptions(customerID string) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	var subs []*stripe.Subscription
	iter := c.api.Subscriptions.List(params)
	for iter.Next() {
		subs = append(subs, iter.Subscription())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

func (c *StripeClient) CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
	}
	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}
