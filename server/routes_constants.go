package server

const (
	RouteHealth = "/healthz"

	// Auth
	RouteAuthLogin   = "/api/auth/login"
	RouteAuthRefresh = "/api/auth/refresh"
	RouteAuthLogout  = "/api/auth/logout"

	// OpenID Connect
	RouteWellKnownOpenIDConfig = "/.well-known/openid-configuration"
	RouteWellKnownJWKS         = "/.well-known/jwks.json"
	RouteOAuth2Token           = "/oauth/token"

	// Customers
	RouteCustomers          = "/api/customers"
	RouteCustomersActive    = "/api/customers/active"
	RouteCustomerByRef      = "/api/customers/ref/{ref}"
	RouteCustomerSuspend    = "/api/customers/ref/{ref}/suspend"
	RouteCustomerReactivate = "/api/customers/ref/{ref}/reactivate"
	RouteCustomerByID       = "/api/customers/{id}"

	// Invoices
	RouteInvoices               = "/api/invoices"
	RouteInvoice                = "/api/invoices/{id}"
	RouteInvoicePay             = "/api/invoices/{id}/pay"
	RouteCustomerInvoices       = "/api/invoices/client/{customerId}"
	RouteCustomerUnpaidInvoices = "/api/invoices/client/{customerId}/unpaid"
	RouteCustomerBalance        = "/api/invoices/client/{customerId}/balance"

	// Subscriptions
	RouteSubscriptions         = "/api/subscriptions"
	RouteSubscriptionsActive   = "/api/subscriptions/active"
	RouteSubscription          = "/api/subscriptions/{id}"
	RouteSubscriptionAction    = "/api/subscriptions/{id}/{action}"
	RouteCustomerSubscriptions = "/api/subscriptions/client/{customerId}"

	// Catalog
	RouteOffers         = "/api/offres"
	RouteOffersActive   = "/api/offres/active"
	RouteOffer          = "/api/offres/{id}"
	RouteServices       = "/api/services"
	RouteServicesActive = "/api/services/active"
	RouteService        = "/api/services/{id}"
	RouteServiceByCode  = "/api/services/code/{code}"
)
