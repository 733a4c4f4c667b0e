package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// Auth endpoints take no access token.
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteWellKnownOpenIDConfig, ChainMiddleware(s.WellKnownOpenIDConfigHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKSHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuth2Token, ChainMiddleware(s.OAuth2TokenHandler(), s.APIMiddleware()...))

	authenticated := s.APIMiddleware(s.RequireAuth)
	staff := s.APIMiddleware(s.RequireAuth, s.RequireRole(staffRoles...))

	// Customers
	s.registerProtected("GET "+RouteCustomers, s.ListCustomersHandler(false), staff)
	s.registerProtected("GET "+RouteCustomersActive, s.ListCustomersHandler(true), staff)
	s.registerProtected("POST "+RouteCustomers, s.CreateCustomerHandler(), staff)
	s.registerProtected("GET "+RouteCustomerByRef, s.CustomerByRefHandler(), authenticated)
	s.registerProtected("GET "+RouteCustomerByID, s.CustomerByIDHandler(), authenticated)
	s.registerProtected("POST "+RouteCustomerSuspend, s.CustomerStatusHandler(StatusSuspended), staff)
	s.registerProtected("POST "+RouteCustomerReactivate, s.CustomerStatusHandler(StatusActive), staff)

	// Invoices
	s.registerProtected("GET "+RouteInvoices, s.ListInvoicesHandler(), staff)
	s.registerProtected("GET "+RouteInvoice, s.InvoiceHandler(), authenticated)
	s.registerProtected("POST "+RouteInvoicePay, s.PayInvoiceHandler(), staff)
	s.registerProtected("GET "+RouteCustomerInvoices, s.CustomerInvoicesHandler(false), authenticated)
	s.registerProtected("GET "+RouteCustomerUnpaidInvoices, s.CustomerInvoicesHandler(true), authenticated)
	s.registerProtected("GET "+RouteCustomerBalance, s.CustomerBalanceHandler(), authenticated)

	// Subscriptions
	s.registerProtected("GET "+RouteSubscriptions, s.ListSubscriptionsHandler(false), staff)
	s.registerProtected("GET "+RouteSubscriptionsActive, s.ListSubscriptionsHandler(true), staff)
	s.registerProtected("POST "+RouteSubscriptions, s.CreateSubscriptionHandler(), staff)
	s.registerProtected("GET "+RouteSubscription, s.SubscriptionHandler(), authenticated)
	s.registerProtected("POST "+RouteSubscriptionAction, s.SubscriptionActionHandler(), staff)
	s.registerProtected("GET "+RouteCustomerSubscriptions, s.CustomerSubscriptionsHandler(), authenticated)

	// Catalog
	s.registerProtected("GET "+RouteOffers, s.ListOffersHandler(false), authenticated)
	s.registerProtected("GET "+RouteOffersActive, s.ListOffersHandler(true), authenticated)
	s.registerProtected("GET "+RouteOffer, s.OfferHandler(), authenticated)
	s.registerProtected("GET "+RouteServices, s.ListServicesHandler(false), authenticated)
	s.registerProtected("GET "+RouteServicesActive, s.ListServicesHandler(true), authenticated)
	s.registerProtected("GET "+RouteService, s.ServiceHandler(false), authenticated)
	s.registerProtected("GET "+RouteServiceByCode, s.ServiceHandler(true), authenticated)
}

func (s *Server) registerProtected(pattern string, handler http.HandlerFunc, mw []func(http.HandlerFunc) http.HandlerFunc) {
	s.RegisterRouteHandler(pattern, ChainMiddleware(handler, mw...))
}
