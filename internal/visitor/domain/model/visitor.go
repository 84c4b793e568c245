package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the lead state of a visitor. It only changes through admin action.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusConverted Status = "converted"
	StatusRejected  Status = "rejected"
)

// Statuses lists every valid Status
var Statuses = []Status{StatusNew, StatusContacted, StatusConverted, StatusRejected}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// StorageSnapshot is a verbatim copy of the client-side stores at one instant
type StorageSnapshot struct {
	Cookies        map[string]string `json:"cookies" bson:"cookies"`
	LocalStorage   map[string]string `json:"localStorage" bson:"localStorage"`
	SessionStorage map[string]string `json:"sessionStorage" bson:"sessionStorage"`
}

// Normalize replaces nil maps with empty ones so stored documents always carry
// all three stores.
func (s StorageSnapshot) Normalize() StorageSnapshot {
	if s.Cookies == nil {
		s.Cookies = map[string]string{}
	}
	if s.LocalStorage == nil {
		s.LocalStorage = map[string]string{}
	}
	if s.SessionStorage == nil {
		s.SessionStorage = map[string]string{}
	}
	return s
}

// PageVisit is one entry of the append-only page log
type PageVisit struct {
	Path      string    `json:"path" bson:"path"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	VisitedAt time.Time `json:"visitedAt" bson:"visitedAt"`
	TimeSpent int       `json:"timeSpent" bson:"timeSpent"` // seconds
}

// DeviceInfo is derived from the User-Agent of the first report
type DeviceInfo struct {
	UserAgent string `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	Type      string `json:"type,omitempty" bson:"type,omitempty"`
	Browser   string `json:"browser,omitempty" bson:"browser,omitempty"`
	OS        string `json:"os,omitempty" bson:"os,omitempty"`
}

// Location is filled from proxy geo headers when available
type Location struct {
	Country string `json:"country,omitempty" bson:"country,omitempty"`
	Region  string `json:"region,omitempty" bson:"region,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
}

// IsZero reports whether no location field is set
func (l *Location) IsZero() bool {
	return l == nil || (l.Country == "" && l.Region == "" && l.City == "")
}

// ContactInfo is set once the visitor identifies through a form
type ContactInfo struct {
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// VisitorRecord is the server-side record of one anonymous browsing context
type VisitorRecord struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VisitorID      string             `json:"visitorId" bson:"visitorId"`
	FirstVisit     time.Time          `json:"firstVisit" bson:"firstVisit"`
	LastVisit      time.Time          `json:"lastVisit" bson:"lastVisit"`
	VisitCount     int64              `json:"visitCount" bson:"visitCount"`
	PagesVisited   []PageVisit        `json:"pagesVisited" bson:"pagesVisited"`
	Device         *DeviceInfo        `json:"device,omitempty" bson:"device,omitempty"`
	Location       *Location          `json:"location,omitempty" bson:"location,omitempty"`
	Referrer       string             `json:"referrer,omitempty" bson:"referrer,omitempty"`
	ContactInfo    *ContactInfo       `json:"contactInfo,omitempty" bson:"contactInfo,omitempty"`
	RawStorageData StorageSnapshot    `json:"rawStorageData" bson:"rawStorageData"`
	Status         Status             `json:"status" bson:"status"`
	LastReportedAt *time.Time         `json:"lastReportedAt,omitempty" bson:"lastReportedAt,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Metadata is descriptive information recorded when a record is created
type Metadata struct {
	Device   *DeviceInfo
	Location *Location
	Referrer string
}

// Report is one storage report reaching the upserter
type Report struct {
	VisitorID string
	Snapshot  StorageSnapshot
	// ClientTimestamp is the time the client claims to have taken the snapshot
	ClientTimestamp *time.Time
	Metadata        Metadata
	At              time.Time
}

// Stats summarizes the visitor collection
type Stats struct {
	Total        int64            `json:"total"`
	ByStatus     map[Status]int64 `json:"byStatus"`
	Identified   int64            `json:"identified"`
	ActiveLast24 int64            `json:"activeLast24h"`
}
