package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/telco-console/auth"
	"github.com/jrsteele09/telco-console/backend"
	"github.com/jrsteele09/telco-console/internal/config"
	"github.com/jrsteele09/telco-console/pipeline"
	"github.com/jrsteele09/telco-console/sessions"
	"github.com/jrsteele09/telco-console/storage"
	"github.com/jrsteele09/telco-console/token/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const usage = `usage: console <command> [flags]

commands:
  login    -u USER [-p PASSWORD] [-customer]   log in (password defaults to $CONSOLE_PASSWORD)
  whoami                                       show the current session
  list     RESOURCE [-customer ID]             customers, invoices, subscriptions, offers or services
  watch    [-resource R] [-interval D] [-metrics-addr A]
                                               poll a resource and serve pipeline metrics
  logout                                       end the session`

// app wires one console process: the persisted session, the auth service
// and, for commands that call the backend, the client behind the pipeline.
type app struct {
	cfg      config.Config
	store    *sessions.Store
	auth     *auth.Service
	api      *backend.Client
	registry *prometheus.Registry
	out      io.Writer
}

func newApp(ctx context.Context, cfg config.Config, out io.Writer) (*app, error) {
	repo, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := sessions.NewStore(ctx, repo)

	authService, err := auth.NewService(cfg.GetBaseURL(), store, auth.WithConfig(cfg))
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		store:    store,
		auth:     authService,
		registry: prometheus.NewRegistry(),
		out:      out,
	}, nil
}

// backend builds the resource client on first use. OIDC discovery only runs
// for commands that reach the backend.
func (a *app) backend(ctx context.Context) (*backend.Client, error) {
	if a.api != nil {
		return a.api, nil
	}

	var refresher refresh.Refresher = a.auth.Refresher()
	if issuer := a.cfg.GetOIDCIssuer(); issuer != "" {
		oidcRefresher, err := refresh.NewOIDCRefresher(ctx, issuer, a.cfg.GetOIDCClientID(), a.cfg.GetOIDCClientSecret())
		if err != nil {
			return nil, err
		}
		log.Debug().Str("token_url", oidcRefresher.TokenURL()).Msg("using OAuth2 refresh grant")
		refresher = oidcRefresher
	}

	client := pipeline.NewClient(a.store, refresher,
		pipeline.WithAuthEndpoints(pipeline.AuthEndpointsFromConfig(a.cfg)),
		pipeline.WithRefreshTimeout(a.cfg.GetRefreshTimeout()),
		pipeline.WithMetrics(pipeline.NewMetrics(a.registry)),
	)
	a.api = backend.NewClient(a.cfg.GetBaseURL(), client)
	return a.api, nil
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	a, err := newApp(ctx, cfg, out)
	if err != nil {
		return fmt.Errorf("[console] %w", err)
	}

	command, args := args[0], args[1:]
	switch command {
	case "login":
		err = a.login(ctx, args)
	case "whoami":
		err = a.whoami()
	case "list":
		err = a.list(ctx, args)
	case "watch":
		err = a.watch(ctx, args)
	case "logout":
		a.auth.Logout(ctx)
		a.auth.Wait()
		fmt.Fprintln(a.out, "logged out")
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	if pipeline.IsTerminal(err) {
		return fmt.Errorf("session ended, log in again: %w", err)
	}
	return err
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("u", "", "username (customer reference for the customer portal)")
	password := fs.String("p", os.Getenv("CONSOLE_PASSWORD"), "password")
	asCustomer := fs.Bool("customer", false, "log in to the customer portal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("login needs -u and a password")
	}

	identity, err := a.auth.Login(ctx, *username, *password, *asCustomer)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", identity.DisplayName, identity.Role)
	return nil
}

func (a *app) whoami() error {
	sess := a.store.Session()
	if !sess.Authenticated() {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s\t%s\t%s\n", sess.Identity.DisplayName, sess.Identity.Role, sess.Identity.ScopeID)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("list needs a resource")
	}
	resource := args[0]
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	customerID := fs.String("customer", "", "restrict to one customer id")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *customerID == "" {
		if identity := a.store.Identity(); identity != nil && identity.Role == sessions.RoleCustomer {
			*customerID = identity.ScopeID
		}
	}
	return a.printResource(ctx, resource, *customerID)
}

func (a *app) printResource(ctx context.Context, resource, customerID string) error {
	api, err := a.backend(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch resource {
	case "customers":
		customers, err := api.ListCustomers(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "REF\tNAME\tCITY\tSTATUS")
		for _, c := range customers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Ref, strings.TrimSpace(c.FirstName+" "+c.LastName), c.City, c.Status)
		}
	case "invoices":
		var (
			invoices []backend.Invoice
			err      error
		)
		if customerID != "" {
			invoices, err = api.ListCustomerInvoices(ctx, customerID)
		} else {
			invoices, err = api.ListInvoices(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "NUMBER\tCUSTOMER\tDUE\tTOTAL\tSTATUS")
		for _, inv := range invoices {
			fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\t%s\n", inv.Number, inv.CustomerID, inv.DueOn, inv.AmountInclTax, inv.Status)
		}
	case "subscriptions":
		var (
			subs []backend.Subscription
			err  error
		)
		if customerID != "" {
			subs, err = api.ListCustomerSubscriptions(ctx, customerID)
		} else {
			subs, err = api.ListSubscriptions(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tCUSTOMER\tOFFER\tSTART\tSTATUS")
		for _, s := range subs {
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n", s.ID, s.CustomerID, s.OfferID, s.StartDate, s.Status)
		}
	case "offers":
		offers, err := api.ListOffers(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "CODE\tLABEL\tMONTHLY\tSTATUS")
		for _, o := range offers {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", o.Code, o.Label, o.MonthlyPrice, o.Status)
		}
	case "services":
		services, err := api.ListServices(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "CODE\tLABEL\tUNIT\tPRICE\tACTIVE")
		for _, s := range services {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%t\n", s.Code, s.Label, s.Unit, s.UnitPrice, s.Active)
		}
	default:
		return fmt.Errorf("unknown resource %q", resource)
	}
	return nil
}

// watch polls a resource until ctx ends or the session does, serving the
// pipeline metrics on metrics-addr meanwhile.
func (a *app) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	resource := fs.String("resource", "offers", "resource to poll")
	interval := fs.Duration("interval", 30*time.Second, "poll interval")
	metricsAddr := fs.String("metrics-addr", "", "serve /metrics on this address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *interval <= 0 {
		return fmt.Errorf("watch needs a positive -interval, got %s", *interval)
	}
	if _, err := a.backend(ctx); err != nil {
		return err
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer srv.Close()
	}

	customerID := ""
	if identity := a.store.Identity(); identity != nil && identity.Role == sessions.RoleCustomer {
		customerID = identity.ScopeID
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		if err := a.printResource(ctx, *resource, customerID); err != nil {
			if pipeline.IsTerminal(err) {
				return err
			}
			log.Warn().Err(err).Str("resource", *resource).Msg("poll failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
