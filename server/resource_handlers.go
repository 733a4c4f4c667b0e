package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jrsteele09/telco-console/backend"
)

func (s *Server) ListCustomersHandler(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.Customers(activeOnly))
	}
}

func (s *Server) CustomerByRefHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := r.PathValue("ref")
		id, ok := s.data.CustomerIDByRef(ref)
		if ok && !canSeeCustomer(r, strconv.FormatInt(id, 10)) {
			writeError(w, http.StatusForbidden, "forbidden", "not your account")
			return
		}
		details, err := s.data.CustomerDetails(ref)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, details)
	}
}

func (s *Server) CustomerByIDHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if !canSeeCustomer(r, r.PathValue("id")) {
			writeError(w, http.StatusForbidden, "forbidden", "not your account")
			return
		}
		customer, err := s.data.CustomerByID(id)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	}
}

func (s *Server) CreateCustomerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var customer backend.Customer
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&customer); err != nil || customer.Ref == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "customerRef is required")
			return
		}
		created, err := s.data.CreateCustomer(customer)
		if err != nil {
			writeError(w, http.StatusConflict, "conflict", "customer already exists")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) CustomerStatusHandler(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.data.SetCustomerStatus(r.PathValue("ref"), status); err != nil {
			writeLookupError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ListInvoicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.Invoices(0, false))
	}
}

// CustomerInvoicesHandler serves the invoices of one customer, or only its
// unpaid invoices.
func (s *Server) CustomerInvoicesHandler(unpaidOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := s.customerScope(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.data.Invoices(customerID, unpaidOnly))
	}
}

func (s *Server) CustomerBalanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := s.customerScope(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.data.Balance(customerID))
	}
}

func (s *Server) InvoiceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		invoice, err := s.data.Invoice(id)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		if !canSeeCustomer(r, strconv.FormatInt(invoice.CustomerID, 10)) {
			writeError(w, http.StatusForbidden, "forbidden", "not your invoice")
			return
		}
		writeJSON(w, http.StatusOK, invoice)
	}
}

func (s *Server) PayInvoiceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		invoice, err := s.data.PayInvoice(id)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, invoice)
	}
}

func (s *Server) ListSubscriptionsHandler(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.Subscriptions(0, activeOnly))
	}
}

func (s *Server) CustomerSubscriptionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := s.customerScope(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.data.Subscriptions(customerID, false))
	}
}

func (s *Server) SubscriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		sub, err := s.data.Subscription(id)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		if !canSeeCustomer(r, strconv.FormatInt(sub.CustomerID, 10)) {
			writeError(w, http.StatusForbidden, "forbidden", "not your subscription")
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

func (s *Server) CreateSubscriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req backend.NewSubscription
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed subscription")
			return
		}
		sub, err := s.data.CreateSubscription(req)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

func (s *Server) SubscriptionActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		sub, err := s.data.TransitionSubscription(id, r.PathValue("action"))
		if err != nil {
			writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

func (s *Server) ListOffersHandler(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.Offers(activeOnly))
	}
}

func (s *Server) OfferHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		offer, err := s.data.Offer(id)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, offer)
	}
}

func (s *Server) ListServicesHandler(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.Services(activeOnly))
	}
}

func (s *Server) ServiceHandler(byCode bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			id   int64
			code string
		)
		if byCode {
			code = r.PathValue("code")
		} else {
			var ok bool
			if id, ok = pathID(w, r, "id"); !ok {
				return
			}
		}
		svc, err := s.data.Service(id, code)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc)
	}
}

// customerScope reads the customerId path value and checks the caller may
// see that customer.
func (s *Server) customerScope(w http.ResponseWriter, r *http.Request) (int64, bool) {
	customerID, ok := pathID(w, r, "customerId")
	if !ok {
		return 0, false
	}
	if !canSeeCustomer(r, r.PathValue("customerId")) {
		writeError(w, http.StatusForbidden, "forbidden", "not your account")
		return 0, false
	}
	return customerID, true
}
