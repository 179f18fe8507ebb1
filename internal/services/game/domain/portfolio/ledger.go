// Package portfolio keeps the ledger of who holds which certificates, trains
// and cash.
//
// Every certificate and train is held by exactly one portfolio at a time.
// Transfers remove the item from its current holder before adding it to the
// new one, so no item is ever visible in two places.
package portfolio

import (
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/certificate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

// Portfolio is the set of items held by one holder.
type Portfolio struct {
	Holder       Holder                      `json:"holder"`
	Cash         int                         `json:"cash"`
	Certificates map[certificate.ID]struct{} `json:"certificates"`
	Trains       map[train.ID]struct{}       `json:"trains"`
}

func newPortfolio(holder Holder) *Portfolio {
	return &Portfolio{
		Holder:       holder,
		Certificates: make(map[certificate.ID]struct{}),
		Trains:       make(map[train.ID]struct{}),
	}
}

// Ledger owns every certificate, train and portfolio of a game.
type Ledger struct {
	Portfolios         map[Holder]*Portfolio                      `json:"portfolios"`
	Certificates       map[certificate.ID]certificate.Certificate `json:"certificates"`
	Trains             map[train.ID]train.Train                   `json:"trains"`
	CertificateHolders map[certificate.ID]Holder                  `json:"certificate_holders"`
	TrainHolders       map[train.ID]Holder                        `json:"train_holders"`
}

// NewLedger returns a ledger with the bank areas in place.
func NewLedger() *Ledger {
	l := &Ledger{
		Portfolios:         make(map[Holder]*Portfolio),
		Certificates:       make(map[certificate.ID]certificate.Certificate),
		Trains:             make(map[train.ID]train.Train),
		CertificateHolders: make(map[certificate.ID]Holder),
		TrainHolders:       make(map[train.ID]Holder),
	}
	for _, h := range []Holder{Bank, IPO, Pool, Scrapyard} {
		l.AddPortfolio(h)
	}
	return l
}

// AddPortfolio creates the holder's portfolio when missing and returns it.
func (l *Ledger) AddPortfolio(holder Holder) *Portfolio {
	if p, ok := l.Portfolios[holder]; ok {
		return p
	}
	p := newPortfolio(holder)
	l.Portfolios[holder] = p
	return p
}

// Portfolio returns the holder's portfolio.
func (l *Ledger) Portfolio(holder Holder) (*Portfolio, bool) {
	p, ok := l.Portfolios[holder]
	return p, ok
}

func (l *Ledger) mustPortfolio(holder Holder) (*Portfolio, error) {
	p, ok := l.Portfolios[holder]
	if !ok {
		return nil, apperrors.IllegalState("unknown holder %s", holder)
	}
	return p, nil
}

// IssueCertificate places a new certificate with its first holder.
func (l *Ledger) IssueCertificate(cert certificate.Certificate, holder Holder) error {
	if _, exists := l.Certificates[cert.ID]; exists {
		return apperrors.IllegalState("certificate %s already issued", cert.ID)
	}
	p, err := l.mustPortfolio(holder)
	if err != nil {
		return err
	}
	l.Certificates[cert.ID] = cert
	l.CertificateHolders[cert.ID] = holder
	p.Certificates[cert.ID] = struct{}{}
	return nil
}

// IssueTrain places a new train with its first holder.
func (l *Ledger) IssueTrain(t train.Train, holder Holder) error {
	if _, exists := l.Trains[t.ID]; exists {
		return apperrors.IllegalState("train %s already issued", t.ID)
	}
	p, err := l.mustPortfolio(holder)
	if err != nil {
		return err
	}
	l.Trains[t.ID] = t
	l.TrainHolders[t.ID] = holder
	p.Trains[t.ID] = struct{}{}
	return nil
}

// Certificate returns a certificate by id.
func (l *Ledger) Certificate(id certificate.ID) (certificate.Certificate, bool) {
	cert, ok := l.Certificates[id]
	return cert, ok
}

// HolderOf returns the current holder of a certificate.
func (l *Ledger) HolderOf(id certificate.ID) (Holder, bool) {
	h, ok := l.CertificateHolders[id]
	return h, ok
}

// TrainHolderOf returns the current holder of a train.
func (l *Ledger) TrainHolderOf(id train.ID) (Holder, bool) {
	h, ok := l.TrainHolders[id]
	return h, ok
}

// MoveCertificate transfers a certificate between holders. It fails with a
// not-held error when from does not hold the certificate.
func (l *Ledger) MoveCertificate(id certificate.ID, from, to Holder) error {
	current, ok := l.CertificateHolders[id]
	if !ok || current != from {
		return apperrors.NotHeld("certificate %s is not held by %s", id, from)
	}
	src, err := l.mustPortfolio(from)
	if err != nil {
		return err
	}
	dst, err := l.mustPortfolio(to)
	if err != nil {
		return err
	}
	delete(src.Certificates, id)
	dst.Certificates[id] = struct{}{}
	l.CertificateHolders[id] = to
	return nil
}

// Discard removes a certificate from play. Closed private
// companies leave the game this way.
func (l *Ledger) Discard(id certificate.ID) error {
	holder, ok := l.CertificateHolders[id]
	if !ok {
		return apperrors.NotHeld("certificate %s is not held", id)
	}
	if p, ok := l.Portfolios[holder]; ok {
		delete(p.Certificates, id)
	}
	delete(l.CertificateHolders, id)
	return nil
}

// MoveTrain transfers a train between holders.
func (l *Ledger) MoveTrain(id train.ID, from, to Holder) error {
	current, ok := l.TrainHolders[id]
	if !ok || current != from {
		return apperrors.NotHeld("train %s is not held by %s", id, from)
	}
	src, err := l.mustPortfolio(from)
	if err != nil {
		return err
	}
	dst, err := l.mustPortfolio(to)
	if err != nil {
		return err
	}
	delete(src.Trains, id)
	dst.Trains[id] = struct{}{}
	l.TrainHolders[id] = to
	return nil
}

// TransferCash moves money between holders. Only the bank may go below zero,
// which marks it as broken.
func (l *Ledger) TransferCash(from, to Holder, amount int) error {
	if amount < 0 {
		return apperrors.IllegalState("negative cash transfer %d", amount)
	}
	src, err := l.mustPortfolio(from)
	if err != nil {
		return err
	}
	dst, err := l.mustPortfolio(to)
	if err != nil {
		return err
	}
	if from != Bank && src.Cash < amount {
		return apperrors.InsufficientFunds("%s has %d, needs %d", from, src.Cash, amount)
	}
	src.Cash -= amount
	dst.Cash += amount
	return nil
}

// Cash returns the holder's cash.
func (l *Ledger) Cash(holder Holder) int {
	if p, ok := l.Portfolios[holder]; ok {
		return p.Cash
	}
	return 0
}

// CertificatesOf returns the holder's certificates of company ordered with
// the president certificate first and then by id.
func (l *Ledger) CertificatesOf(holder Holder, company entity.CompanyID) []certificate.Certificate {
	p, ok := l.Portfolios[holder]
	if !ok {
		return nil
	}
	var out []certificate.Certificate
	for id := range p.Certificates {
		cert := l.Certificates[id]
		if cert.Company == company {
			out = append(out, cert)
		}
	}
	sortCertificates(out)
	return out
}

// AllCertificates returns every certificate the holder has, ordered by company then id.
func (l *Ledger) AllCertificates(holder Holder) []certificate.Certificate {
	p, ok := l.Portfolios[holder]
	if !ok {
		return nil
	}
	out := make([]certificate.Certificate, 0, len(p.Certificates))
	for id := range p.Certificates {
		out = append(out, l.Certificates[id])
	}
	slices.SortFunc(out, func(a, b certificate.Certificate) int {
		if a.Company != b.Company {
			if a.Company < b.Company {
				return -1
			}
			return 1
		}
		return compareCertificates(a, b)
	})
	return out
}

// ShareCount returns the percent of company held by holder.
func (l *Ledger) ShareCount(holder Holder, company entity.CompanyID) int {
	total := 0
	for _, cert := range l.CertificatesOf(holder, company) {
		total += cert.Percent
	}
	return total
}

// CertificateCount returns the number of certificates counted against a
// holder's certificate limit. exempt reports companies whose shares do not count.
func (l *Ledger) CertificateCount(holder Holder, exempt func(entity.CompanyID) bool) int {
	p, ok := l.Portfolios[holder]
	if !ok {
		return 0
	}
	count := 0
	for id := range p.Certificates {
		cert := l.Certificates[id]
		if exempt != nil && cert.IsShare() && exempt(cert.Company) {
			continue
		}
		count++
	}
	return count
}

// CompanyPercentTotal returns the total percent of company across all held certificates.
func (l *Ledger) CompanyPercentTotal(company entity.CompanyID) int {
	total := 0
	for id, cert := range l.Certificates {
		if cert.Company != company || !cert.IsShare() {
			continue
		}
		if _, held := l.CertificateHolders[id]; held {
			total += cert.Percent
		}
	}
	return total
}

// TotalCash returns the sum of cash across every portfolio.
func (l *Ledger) TotalCash() int {
	total := 0
	for _, p := range l.Portfolios {
		total += p.Cash
	}
	return total
}

// TrainsOf returns the holder's trains ordered by id.
func (l *Ledger) TrainsOf(holder Holder) []train.Train {
	p, ok := l.Portfolios[holder]
	if !ok {
		return nil
	}
	out := make([]train.Train, 0, len(p.Trains))
	for id := range p.Trains {
		out = append(out, l.Trains[id])
	}
	slices.SortFunc(out, func(a, b train.Train) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// TrainCounts returns the holder's number of trains per type.
func (l *Ledger) TrainCounts(holder Holder) map[string]int {
	counts := make(map[string]int)
	for _, t := range l.TrainsOf(holder) {
		counts[t.Type]++
	}
	return counts
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	out := &Ledger{
		Portfolios:         make(map[Holder]*Portfolio, len(l.Portfolios)),
		Certificates:       make(map[certificate.ID]certificate.Certificate, len(l.Certificates)),
		Trains:             make(map[train.ID]train.Train, len(l.Trains)),
		CertificateHolders: make(map[certificate.ID]Holder, len(l.CertificateHolders)),
		TrainHolders:       make(map[train.ID]Holder, len(l.TrainHolders)),
	}
	for h, p := range l.Portfolios {
		cp := newPortfolio(h)
		cp.Cash = p.Cash
		for id := range p.Certificates {
			cp.Certificates[id] = struct{}{}
		}
		for id := range p.Trains {
			cp.Trains[id] = struct{}{}
		}
		out.Portfolios[h] = cp
	}
	for k, v := range l.Certificates {
		out.Certificates[k] = v
	}
	for k, v := range l.Trains {
		out.Trains[k] = v
	}
	for k, v := range l.CertificateHolders {
		out.CertificateHolders[k] = v
	}
	for k, v := range l.TrainHolders {
		out.TrainHolders[k] = v
	}
	return out
}

// Holders returns every holder ordered by name.
func (l *Ledger) Holders() []Holder {
	out := make([]Holder, 0, len(l.Portfolios))
	for h := range l.Portfolios {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

func sortCertificates(certs []certificate.Certificate) {
	slices.SortFunc(certs, compareCertificates)
}

func compareCertificates(a, b certificate.Certificate) int {
	if a.President != b.President {
		if a.President {
			return -1
		}
		return 1
	}
	if a.ID < b.ID {
		return -1
	}
	if a.ID > b.ID {
		return 1
	}
	return 0
}
