package server

import (
	"slices"
	"sync"
	"time"

	"github.com/jrsteele09/telco-console/backend"
	apperrors "github.com/jrsteele09/telco-console/internal/errors"
)

// Status values used by the console backend.
const (
	StatusActive     = "ACTIVE"
	StatusSuspended  = "SUSPENDED"
	StatusTerminated = "TERMINATED"

	InvoicePaid    = "PAYEE"
	InvoiceUnpaid  = "IMPAYEE"
	InvoiceOverdue = "EN_RETARD"
)

// Fixtures is the in-memory data set the development backend serves.
type Fixtures struct {
	mu            sync.RWMutex
	customers     []customerRecord
	invoices      []backend.Invoice
	subscriptions []backend.Subscription
	offers        []backend.Offer
	services      []backend.Service
	nextID        int64
}

type customerRecord struct {
	id int64
	backend.Customer
}

func NewFixtures() *Fixtures {
	return &Fixtures{
		nextID: 100,
		customers: []customerRecord{
			{1, backend.Customer{Ref: "CUST-001", LastName: "ACME Telecom", Email: "contact@acme.example", Address: "12 rue de la Paix", City: "Paris", PostalCode: "75002", Country: "FR", Type: "ENTREPRISE", Status: StatusActive, PaymentType: "PREPAID", CreditLimit: 500}},
			{2, backend.Customer{Ref: "CUST-002", LastName: "Durand", FirstName: "Claire", Email: "claire.durand@example.com", Address: "4 avenue Foch", City: "Lyon", PostalCode: "69006", Country: "FR", Type: "PARTICULIER", Status: StatusActive, PaymentType: "POSTPAID"}},
			{3, backend.Customer{Ref: "CUST-003", LastName: "Bernard", FirstName: "Luc", Email: "luc.bernard@example.com", Address: "8 quai des Chartrons", City: "Bordeaux", PostalCode: "33000", Country: "FR", Type: "PARTICULIER", Status: StatusSuspended, PaymentType: "POSTPAID"}},
		},
		services: []backend.Service{
			{ID: 1, Code: "VOICE", Label: "Appels nationaux", Unit: "MINUTE", UnitPrice: 0.05, Category: "VOIX", Active: true},
			{ID: 2, Code: "SMS", Label: "SMS nationaux", Unit: "SMS", UnitPrice: 0.02, Category: "SMS", Active: true},
			{ID: 3, Code: "DATA", Label: "Internet mobile", Unit: "MO", UnitPrice: 0.01, Category: "DATA", Active: true},
			{ID: 4, Code: "ROAM", Label: "Itinérance", Unit: "MINUTE", UnitPrice: 0.45, Category: "VOIX", Active: false},
		},
		offers: []backend.Offer{
			{ID: 1, Code: "ESSENTIEL", Label: "Essentiel", MonthlyPrice: 9.99, Status: StatusActive, ServiceIDs: []int64{1, 2}},
			{ID: 2, Code: "CONFORT", Label: "Confort", MonthlyPrice: 19.99, Status: StatusActive, ServiceIDs: []int64{1, 2, 3}},
			{ID: 3, Code: "MONDE", Label: "Monde", MonthlyPrice: 39.99, Status: StatusSuspended, ServiceIDs: []int64{1, 2, 3, 4}},
		},
		subscriptions: []backend.Subscription{
			{ID: 1, CustomerID: 1, OfferID: 2, StartDate: "2025-01-01", Status: StatusActive},
			{ID: 2, CustomerID: 2, OfferID: 1, StartDate: "2025-03-15", Status: StatusActive},
			{ID: 3, CustomerID: 3, OfferID: 1, StartDate: "2024-06-01", Status: StatusSuspended},
		},
		invoices: []backend.Invoice{
			{ID: 1, Number: "FAC-2025-0001", CustomerID: 1, SubscriptionID: 1, IssuedOn: "2025-02-01", DueOn: "2025-02-28", AmountExclTax: 16.66, TaxAmount: 3.33, AmountInclTax: 19.99, Status: InvoicePaid, PaidAt: "2025-02-10"},
			{ID: 2, Number: "FAC-2025-0002", CustomerID: 1, SubscriptionID: 1, IssuedOn: "2025-03-01", DueOn: "2025-03-31", AmountExclTax: 16.66, TaxAmount: 3.33, AmountInclTax: 19.99, Status: InvoiceUnpaid},
			{ID: 3, Number: "FAC-2025-0003", CustomerID: 2, SubscriptionID: 2, IssuedOn: "2025-04-01", DueOn: "2025-04-30", AmountExclTax: 8.33, TaxAmount: 1.66, AmountInclTax: 9.99, Status: InvoiceOverdue},
		},
	}
}

func (f *Fixtures) Customers(activeOnly bool) []backend.Customer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]backend.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		if !activeOnly || c.Status == StatusActive {
			out = append(out, c.Customer)
		}
	}
	return out
}

func (f *Fixtures) CustomerByID(id int64) (*backend.Customer, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.customers {
		if c.id == id {
			customer := c.Customer
			return &customer, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// CustomerDetails returns the customer with its contracts and bills.
func (f *Fixtures) CustomerDetails(ref string) (*backend.CustomerDetails, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.customers {
		if c.Ref != ref {
			continue
		}
		details := &backend.CustomerDetails{Customer: c.Customer}
		for _, sub := range f.subscriptions {
			if sub.CustomerID == c.id {
				details.Subscriptions = append(details.Subscriptions, sub)
			}
		}
		for _, inv := range f.invoices {
			if inv.CustomerID == c.id {
				details.Invoices = append(details.Invoices, inv)
			}
		}
		return details, nil
	}
	return nil, apperrors.ErrNotFound
}

// CustomerIDByRef maps a customer reference onto its numeric id.
func (f *Fixtures) CustomerIDByRef(ref string) (int64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.customers {
		if c.Ref == ref {
			return c.id, true
		}
	}
	return 0, false
}

func (f *Fixtures) CreateCustomer(c backend.Customer) (*backend.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.customers {
		if existing.Ref == c.Ref {
			return nil, apperrors.ErrUnsupported
		}
	}
	f.nextID++
	if c.Status == "" {
		c.Status = StatusActive
	}
	c.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	f.customers = append(f.customers, customerRecord{id: f.nextID, Customer: c})
	return &c, nil
}

func (f *Fixtures) SetCustomerStatus(ref, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.customers {
		if f.customers[i].Ref == ref {
			f.customers[i].Status = status
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// Invoices lists invoices, optionally for one customer and only the unpaid
// ones. customerID 0 means every customer.
func (f *Fixtures) Invoices(customerID int64, unpaidOnly bool) []backend.Invoice {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]backend.Invoice, 0, len(f.invoices))
	for _, inv := range f.invoices {
		if customerID != 0 && inv.CustomerID != customerID {
			continue
		}
		if unpaidOnly && inv.Status == InvoicePaid {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// Balance is the total still owed by a customer.
func (f *Fixtures) Balance(customerID int64) float64 {
	var total float64
	for _, inv := range f.Invoices(customerID, true) {
		total += inv.AmountInclTax
	}
	return total
}

func (f *Fixtures) Invoice(id int64) (*backend.InvoiceDetails, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, inv := range f.invoices {
		if inv.ID != id {
			continue
		}
		details := &backend.InvoiceDetails{Invoice: inv}
		for _, c := range f.customers {
			if c.id == inv.CustomerID {
				customer := c.Customer
				details.Customer = &customer
			}
		}
		return details, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *Fixtures) PayInvoice(id int64) (*backend.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.invoices {
		if f.invoices[i].ID == id {
			f.invoices[i].Status = InvoicePaid
			f.invoices[i].PaidAt = time.Now().UTC().Format(time.DateOnly)
			inv := f.invoices[i]
			return &inv, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *Fixtures) Subscriptions(customerID int64, activeOnly bool) []backend.Subscription {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]backend.Subscription, 0, len(f.subscriptions))
	for _, sub := range f.subscriptions {
		if customerID != 0 && sub.CustomerID != customerID {
			continue
		}
		if activeOnly && sub.Status != StatusActive {
			continue
		}
		out = append(out, sub)
	}
	return out
}

func (f *Fixtures) Subscription(id int64) (*backend.Subscription, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, sub := range f.subscriptions {
		if sub.ID == id {
			return &sub, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *Fixtures) CreateSubscription(req backend.NewSubscription) (*backend.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !slices.ContainsFunc(f.customers, func(c customerRecord) bool { return c.id == req.CustomerID }) {
		return nil, apperrors.ErrNotFound
	}
	if !slices.ContainsFunc(f.offers, func(o backend.Offer) bool { return o.ID == req.OfferID }) {
		return nil, apperrors.ErrNotFound
	}
	f.nextID++
	sub := backend.Subscription{
		ID:         f.nextID,
		CustomerID: req.CustomerID,
		OfferID:    req.OfferID,
		StartDate:  req.StartDate,
		Status:     StatusActive,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	f.subscriptions = append(f.subscriptions, sub)
	return &sub, nil
}

// subscriptionTransitions maps an action onto the status it sets and the
// statuses it may start from.
var subscriptionTransitions = map[string]struct {
	to   string
	from []string
}{
	"activate":  {StatusActive, []string{StatusSuspended}},
	"suspend":   {StatusSuspended, []string{StatusActive}},
	"terminate": {StatusTerminated, []string{StatusActive, StatusSuspended}},
}

// TransitionSubscription applies action. Unknown actions give ErrUnsupported,
// actions not allowed from the current status give ErrInternal.
func (f *Fixtures) TransitionSubscription(id int64, action string) (*backend.Subscription, error) {
	transition, ok := subscriptionTransitions[action]
	if !ok {
		return nil, apperrors.ErrUnsupported
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.subscriptions {
		if f.subscriptions[i].ID != id {
			continue
		}
		if !slices.Contains(transition.from, f.subscriptions[i].Status) {
			return nil, apperrors.ErrInternal
		}
		f.subscriptions[i].Status = transition.to
		if transition.to == StatusTerminated {
			f.subscriptions[i].EndDate = time.Now().UTC().Format(time.DateOnly)
		}
		sub := f.subscriptions[i]
		return &sub, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *Fixtures) Offers(activeOnly bool) []backend.Offer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]backend.Offer, 0, len(f.offers))
	for _, o := range f.offers {
		if !activeOnly || o.Status == StatusActive {
			out = append(out, o)
		}
	}
	return out
}

func (f *Fixtures) Offer(id int64) (*backend.Offer, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, o := range f.offers {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *Fixtures) Services(activeOnly bool) []backend.Service {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]backend.Service, 0, len(f.services))
	for _, svc := range f.services {
		if !activeOnly || svc.Active {
			out = append(out, svc)
		}
	}
	return out
}

// Service finds a service by id, or by code when code is not empty.
func (f *Fixtures) Service(id int64, code string) (*backend.Service, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, svc := range f.services {
		if (code != "" && svc.Code == code) || (code == "" && svc.ID == id) {
			return &svc, nil
		}
	}
	return nil, apperrors.ErrNotFound
}
