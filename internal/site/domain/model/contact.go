package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactMessage is a submission of the public contact form
type ContactMessage struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Subject   string             `json:"subject,omitempty" bson:"subject,omitempty"`
	Message   string             `json:"message" bson:"message"`
	VisitorID string             `json:"visitorId,omitempty" bson:"visitorId,omitempty"`
	IsRead    bool               `json:"isRead" bson:"isRead"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Section names a content collection shown on a page, with the number of
// documents to include
type Section struct {
	Collection   string
	Limit        int
	FeaturedOnly bool
	// Single pages carry one document (or null) instead of a list
	Single bool
}

// Pages lists the sections each public page is assembled from
var Pages = map[string][]Section{
	"home": {
		{Collection: "services", Limit: 6},
		{Collection: "portfolio", Limit: 6, FeaturedOnly: true},
		{Collection: "products", Limit: 3, FeaturedOnly: true},
		{Collection: "testimonials", Limit: 6, FeaturedOnly: true},
		{Collection: "achievements", Limit: 8},
		{Collection: "blog", Limit: 3},
		{Collection: "experience", Limit: 1, Single: true},
	},
	"about": {
		{Collection: "team", Limit: 50},
		{Collection: "values", Limit: 20},
		{Collection: "achievements", Limit: 20},
		{Collection: "experience", Limit: 1, Single: true},
		{Collection: "testimonials", Limit: 10},
	},
	"services":  {{Collection: "services", Limit: 100}, {Collection: "testimonials", Limit: 10, FeaturedOnly: true}},
	"portfolio": {{Collection: "portfolio", Limit: 100}},
	"products":  {{Collection: "products", Limit: 100}},
	"blog":      {{Collection: "blog", Limit: 100}},
	"gallery":   {{Collection: "gallery", Limit: 100}},
	"contact":   {{Collection: "services", Limit: 100}},
}
