package server

import (
	"fmt"

	"github.com/jrsteele09/telco-console/clients"
	"github.com/jrsteele09/telco-console/users"
	"github.com/rs/zerolog/log"
)

// DemoUsers are created at startup, one per console role. The customer's
// username is its customer reference, as in the customer portal.
var DemoUsers = []users.User{
	{Username: "admin", DisplayName: "Administrateur", Role: users.RoleAdmin},
	{Username: "mmartin", DisplayName: "Marie Martin", Role: users.RoleManager, BoutiqueID: "BTQ-1"},
	{Username: "jdupont", DisplayName: "Jean Dupont", Role: users.RoleAgent, BoutiqueID: "BTQ-1"},
	{Username: "CUST-001", DisplayName: "ACME Telecom", Role: users.RoleCustomer, CustomerID: "1"},
}

// ConsoleClientID is the public client the console uses at the token endpoint.
const ConsoleClientID = "telco-console"

// DemoClients are registered at startup for the refresh_token grant.
var DemoClients = []clients.Client{
	{ID: ConsoleClientID, Type: clients.ClientTypePublic, Description: "Telco console CLI", Scopes: []string{"openid", "offline_access"}},
}

// InitialiseSystem creates the demo clients, and the demo users that do not exist yet, all with
// the given password.
func (s *Server) InitialiseSystem(password string) error {
	for _, demo := range DemoClients {
		if _, err := s.clients.Get(demo.ID); err == nil {
			continue
		}
		client := demo
		if err := s.clients.Upsert(&client); err != nil {
			return fmt.Errorf("[InitialiseSystem] failed to register client %s: %w", demo.ID, err)
		}
	}

	hash := ""
	for _, demo := range DemoUsers {
		if _, err := s.users.GetByUsername(demo.Username); err == nil {
			continue
		}
		if hash == "" {
			if err := users.ValidatePasswordStrength(password); err != nil {
				return fmt.Errorf("[InitialiseSystem] seed password: %w", err)
			}
			var err error
			if hash, err = users.HashPassword(password); err != nil {
				return fmt.Errorf("[InitialiseSystem] failed to hash password: %w", err)
			}
		}

		user := demo
		user.PasswordHash = hash
		if err := s.users.Upsert(&user); err != nil {
			return fmt.Errorf("[InitialiseSystem] failed to create %s: %w", demo.Username, err)
		}
		log.Info().Str("user", user.Username).Str("role", user.Role).Msg("created demo user")
	}
	return nil
}
