// Package catalog defines the card collection's domain types.
package catalog

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by storage when no database handle was ever established.
var ErrNotConnected = errors.New("database connection not established")

// Card is one owned-card record from a ManaBox collection export. Optional
// fields are nil or empty when the export left the cell blank.
type Card struct {
	ID                    string   `json:"_id"`
	BinderName            string   `json:"binder_name,omitempty"`
	BinderType            string   `json:"binder_type,omitempty"`
	Name                  string   `json:"name" validate:"required,card_name"`
	SetCode               string   `json:"set_code,omitempty"`
	SetName               string   `json:"set_name,omitempty"`
	CollectorNumber       string   `json:"collector_number,omitempty"`
	Foil                  string   `json:"foil,omitempty"`
	Rarity                string   `json:"rarity,omitempty"`
	Quantity              *int     `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	ManaboxID             *int64   `json:"manabox_id,omitempty"`
	ScryfallID            string   `json:"scryfall_id,omitempty"`
	PurchasePrice         *float64 `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
	Misprint              *bool    `json:"misprint,omitempty"`
	Altered               *bool    `json:"altered,omitempty"`
	Condition             string   `json:"condition,omitempty"`
	Language              string   `json:"language,omitempty"`
	PurchasePriceCurrency string   `json:"purchase_price_currency,omitempty"`
}

// SearchResult is a card joined with its artwork URL. ImageURL is nil when no
// image could be resolved and serializes as null.
type SearchResult struct {
	Card
	ImageURL *string `json:"image_url"`
}

// Repository is the storage contract for the card collection.
type Repository interface {
	SearchByName(ctx context.Context, query string, limit int) ([]Card, error)
	InsertMany(ctx context.Context, cards []Card) ([]string, error)
	Count(ctx context.Context) (int64, error)
	Sample(ctx context.Context, n int) ([]Card, error)
	DeleteAll(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}
