// Package domain defines the persistence models for destinations, aliases,
// and hits. These types are mapped with GORM and form the core data layer
// of the redirect service.
package domain

import (
	"time"
)

// Destination maps a slug to an absolute URL. Destinations are created,
// updated and soft-deleted by the administrative API only; the redirect path
// observes them through cached snapshots.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the creator.
//   - Slug: unique lookup key; never changed after creation.
//   - URL: absolute destination URL.
//   - IsPermanent: 308 instead of 307; permanent destinations are immutable.
//   - ForwardQueryParameters: merge the inbound query into the target.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft-delete marker. This is a plain nullable column rather
//     than gorm.DeletedAt because slug lookups must see deleted rows.
type Destination struct {
	ID                     string     `json:"id"                       gorm:"type:char(36);primaryKey"`
	UserID                 string     `json:"user_id"                  gorm:"type:varchar(64);not null;index"`
	Slug                   string     `json:"slug"                     gorm:"type:varchar(2048);not null;uniqueIndex:ux_destinations_slug"`
	URL                    string     `json:"url"                      gorm:"type:text;not null"`
	IsPermanent            bool       `json:"is_permanent"             gorm:"not null;default:false"`
	ForwardQueryParameters bool       `json:"forward_query_parameters" gorm:"not null;default:false"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
	DeletedAt              *time.Time `json:"deleted_at,omitempty"     gorm:"index"`
}

// TableName returns the database table name for Destination.
func (Destination) TableName() string { return "destinations" }

// IsDeleted reports whether the destination is soft-deleted.
func (d *Destination) IsDeleted() bool { return d.DeletedAt != nil }

// Alias is an alternative slug for a destination. Its slug shares one
// namespace with destination slugs.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: identifier of the creator.
//   - Slug: unique lookup key.
//   - DestinationID: the destination this alias resolves to (indexed).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft-delete marker (see Destination.DeletedAt).
//   - Destination: FK association.
type Alias struct {
	ID            string     `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string     `json:"user_id"        gorm:"type:varchar(64);not null;index"`
	Slug          string     `json:"slug"           gorm:"type:varchar(2048);not null;uniqueIndex:ux_aliases_slug"`
	DestinationID string     `json:"destination_id" gorm:"type:char(36);not null;index"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" gorm:"index"`

	Destination Destination `json:"-" gorm:"foreignKey:DestinationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Alias.
func (Alias) TableName() string { return "aliases" }

// IsDeleted reports whether the alias is soft-deleted.
func (a *Alias) IsDeleted() bool { return a.DeletedAt != nil }

// Hit is one recorded resolution of a slug. Hits are append-only and are
// never read back by the redirect path.
//
// CreatedAt is captured when the request is served, not when the row is
// written: persistence may be delayed by the hit queue.
type Hit struct {
	ID            string    `json:"id"                   gorm:"type:char(36);primaryKey"`
	DestinationID string    `json:"destination_id"       gorm:"type:char(36);not null;index:idx_hits_destination,priority:1"`
	AliasID       *string   `json:"alias_id,omitempty"   gorm:"type:char(36);index"`
	IPAddress     *string   `json:"ip_address,omitempty" gorm:"type:varchar(64)"`
	UserAgent     *string   `json:"user_agent,omitempty" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"           gorm:"not null;index:idx_hits_destination,priority:2"`
}

// TableName returns the database table name for Hit.
func (Hit) TableName() string { return "hits" }
