package model

import "time"

// Base holds the fields every content document shares
type Base struct {
	ID        string    `json:"id" bson:"_id"`
	IsActive  bool      `json:"isActive" bson:"isActive"`
	Order     int       `json:"order" bson:"order"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// GetBase gives generic code access to the shared fields
func (b *Base) GetBase() *Base { return b }

// Document is implemented by pointers to every content entity
type Document interface {
	GetBase() *Base
}

// Sluggable documents carry a slug unique within their collection
type Sluggable interface {
	Document
	SlugSource() string
	GetSlug() string
	SetSlug(string)
}

// Sequenced documents get the next collection sequence on creation
type Sequenced interface {
	Document
	SetSequence(int)
}

// Publishable documents are hidden from the public until published
type Publishable interface {
	Document
	Published() bool
	// StampPublished sets the publication time if it is not set yet
	StampPublished(at time.Time)
}

// Descriptor tells generic code how an entity is stored and queried
type Descriptor struct {
	// Name is both the collection name and the route segment, e.g. "services"
	Name string
	// Resource is used in not-found messages, e.g. "service"
	Resource string
	// TitleField is the bson field matched by ?q=
	TitleField  string
	OrderField  string
	SortFields  []string
	HasSlug     bool
	HasCategory bool
	HasFeatured bool
	// TagsField is the bson array matched by ?tag=, empty when unsupported
	TagsField string
	// PublishedField is the bson bool public queries require to be true,
	// empty when the entity has no draft state
	PublishedField string
	Sequenced      bool
}

// DefaultSortFields are sortable on every entity
var DefaultSortFields = []string{"order", "createdAt", "updatedAt"}
