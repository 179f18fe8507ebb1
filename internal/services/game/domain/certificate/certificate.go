// Package certificate defines ownership certificates for public and private
// companies.
package certificate

import "github.com/louisbranch/stockrail/internal/services/game/domain/entity"

// ID identifies a certificate.
type ID string

// Kind distinguishes private company certificates from public company shares.
type Kind string

const (
	// KindPrivate is the single certificate of a private company.
	KindPrivate Kind = "private"
	// KindShare is a share of a public company.
	KindShare Kind = "share"
)

// Certificate is a unit of ownership. Shares carry a percent of their public
// company; a private certificate represents the whole private company.
type Certificate struct {
	ID        ID               `json:"id"`
	Kind      Kind             `json:"kind"`
	Company   entity.CompanyID `json:"company"`
	Percent   int              `json:"percent,omitempty"`
	President bool             `json:"president,omitempty"`
}

// NewShare returns a share certificate of company.
func NewShare(id ID, company entity.CompanyID, percent int, president bool) Certificate {
	return Certificate{ID: id, Kind: KindShare, Company: company, Percent: percent, President: president}
}

// NewPrivate returns the certificate of a private company.
func NewPrivate(id ID, company entity.CompanyID) Certificate {
	return Certificate{ID: id, Kind: KindPrivate, Company: company}
}

// IsShare reports whether the certificate is a public company share.
func (c Certificate) IsShare() bool {
	return c.Kind == KindShare
}

// Shares returns the number of share units the certificate stands for.
func (c Certificate) Shares(unit int) int {
	if !c.IsShare() || unit <= 0 {
		return 0
	}
	return c.Percent / unit
}
