package backend

// Customer is a subscriber account. JSON names follow the backend's DTOs.
type Customer struct {
	Ref            string  `json:"customerRef"`
	LastName       string  `json:"nom"`
	FirstName      string  `json:"prenom"`
	Email          string  `json:"email"`
	Phone          string  `json:"telephone,omitempty"`
	Address        string  `json:"adresse"`
	City           string  `json:"ville,omitempty"`
	PostalCode     string  `json:"codePostal,omitempty"`
	Country        string  `json:"pays,omitempty"`
	Type           string  `json:"type"`
	Status         string  `json:"status,omitempty"`
	PaymentType    string  `json:"paymentType,omitempty"`
	AccountBalance float64 `json:"accountBalance,omitempty"`
	CreditLimit    float64 `json:"creditLimit,omitempty"`
	CreatedAt      string  `json:"createdAt,omitempty"`
}

type CustomerDetails struct {
	Customer
	Subscriptions []Subscription `json:"contracts,omitempty"`
	Invoices      []Invoice      `json:"bills,omitempty"`
}

// Subscription is a customer's contract for an offer.
type Subscription struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"clientId"`
	OfferID    int64  `json:"offreId"`
	StartDate  string `json:"dateDebut,omitempty"`
	EndDate    string `json:"dateFin,omitempty"`
	Status     string `json:"status,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

type NewSubscription struct {
	CustomerID int64  `json:"clientId"`
	OfferID    int64  `json:"offreId"`
	StartDate  string `json:"dateDebut,omitempty"`
}

// Service is a billable catalog item.
type Service struct {
	ID        int64   `json:"id"`
	Code      string  `json:"code"`
	Label     string  `json:"libelle"`
	Unit      string  `json:"unite"`
	UnitPrice float64 `json:"prixUnitaire"`
	Category  string  `json:"category,omitempty"`
	Active    bool    `json:"active"`
}

// Offer bundles services at a monthly price.
type Offer struct {
	ID           int64   `json:"id"`
	Code         string  `json:"code"`
	Label        string  `json:"libelle"`
	Description  string  `json:"description,omitempty"`
	MonthlyPrice float64 `json:"prixMensuel"`
	StartDate    string  `json:"dateDebut,omitempty"`
	EndDate      string  `json:"dateFin,omitempty"`
	Status       string  `json:"status,omitempty"`
	ServiceIDs   []int64 `json:"serviceIds,omitempty"`
}

type Invoice struct {
	ID             int64   `json:"id"`
	Number         string  `json:"numeroFacture"`
	CustomerID     int64   `json:"clientId"`
	SubscriptionID int64   `json:"contratId,omitempty"`
	IssuedOn       string  `json:"dateFacture"`
	DueOn          string  `json:"dateEcheance"`
	PeriodStart    string  `json:"periodeDebut,omitempty"`
	PeriodEnd      string  `json:"periodeFin,omitempty"`
	AmountExclTax  float64 `json:"montantHT"`
	TaxAmount      float64 `json:"montantTVA"`
	AmountInclTax  float64 `json:"montantTTC"`
	Status         string  `json:"statut"`
	LineCount      int     `json:"nombreLignes,omitempty"`
	CreatedAt      string  `json:"createdAt,omitempty"`
	PaidAt         string  `json:"paidAt,omitempty"`
}

type InvoiceLine struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"factureId,omitempty"`
	Type        string  `json:"type,omitempty"`
	Description string  `json:"description"`
	ServiceID   int64   `json:"serviceId,omitempty"`
	UsageID     int64   `json:"usageId,omitempty"`
	Quantity    float64 `json:"quantite"`
	UnitPrice   float64 `json:"prixUnitaire"`
	Amount      float64 `json:"montant"`
}

type InvoiceDetails struct {
	Invoice
	Customer *Customer     `json:"customer,omitempty"`
	Lines    []InvoiceLine `json:"lines,omitempty"`
}
