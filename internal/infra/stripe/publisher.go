// Package stripe publishes marketplace listings as Stripe payment links.
package stripe

import (
	"context"
	"fmt"
	"strings"

	"artwork-catalog/internal/domain/marketplace"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
	"go.uber.org/zap"
)

const DefaultCurrency = "usd"

type Publisher struct {
	api *client.API
	log *zap.Logger
}

func NewPublisher(secretKey string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{api: client.New(secretKey, nil), log: log}
}

// Publish creates a product, a one-off price and a payment link for the offer.
// The payment link id is the publication's external id.
func (p *Publisher) Publish(ctx context.Context, o marketplace.Offer) (*marketplace.Publication, error) {
	currency := o.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	productParams := &stripe.ProductParams{
		Params: stripe.Params{Context: ctx},
		Name:   stripe.String(o.Title),
	}
	if o.Description != "" {
		productParams.Description = stripe.String(o.Description)
	}
	if strings.HasPrefix(o.ImageURL, "https://") {
		productParams.Images = stripe.StringSlice([]string{o.ImageURL})
	}
	productParams.AddMetadata("artwork_id", o.ArtworkID)
	productParams.AddMetadata("listing_id", o.ListingID)

	prod, err := p.api.Products.New(productParams)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	pr, err := p.api.Prices.New(&stripe.PriceParams{
		Params:     stripe.Params{Context: ctx},
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(o.Price),
		Currency:   stripe.String(currency),
	})
	if err != nil {
		return nil, fmt.Errorf("create price: %w", err)
	}

	link, err := p.api.PaymentLinks.New(&stripe.PaymentLinkParams{
		Params: stripe.Params{Context: ctx},
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{Price: stripe.String(pr.ID), Quantity: stripe.Int64(1)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create payment link: %w", err)
	}

	p.log.Info("listing published to stripe",
		zap.String("artwork_id", o.ArtworkID),
		zap.String("product_id", prod.ID),
		zap.String("payment_link_id", link.ID))

	return &marketplace.Publication{
		ExternalID: link.ID,
		URL:        link.URL,
		Status:     ListingStatus(link.Active),
	}, nil
}

// Withdraw deactivates the payment link so it stops accepting purchases.
func (p *Publisher) Withdraw(ctx context.Context, externalID string) error {
	_, err := p.api.PaymentLinks.Update(externalID, &stripe.PaymentLinkParams{
		Params: stripe.Params{Context: ctx},
		Active: stripe.Bool(false),
	})
	if err != nil {
		return fmt.Errorf("deactivate payment link: %w", err)
	}
	return nil
}

// ListingStatus maps a payment link's active flag onto a listing status.
func ListingStatus(active bool) string {
	if active {
		return marketplace.StatusActive
	}
	return marketplace.StatusRemoved
}
