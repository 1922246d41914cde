package model

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber is an address on the product-update mailing list.
type Subscriber struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	WantsProductUpdates bool      `json:"wantsProductUpdates"`
	SubscribedAt        time.Time `json:"subscribedAt"`
}

// SubscribeRequest is the payload for POST /api/subscribers.
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CampaignRequest is the admin payload for POST /api/subscribers/send-update.
type CampaignRequest struct {
	Subject  string `json:"subject" validate:"required"`
	Body     string `json:"body" validate:"required"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}
