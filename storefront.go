// Package storefront ties the credit-store checkout pieces together: the
// project catalog, the price oracle, the connected wallets, and the
// settlement receipt relay.
package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/ecotoken/storefront/catalog"
	"github.com/ecotoken/storefront/checkout"
	"github.com/ecotoken/storefront/logger"
	"github.com/ecotoken/storefront/metrics"
	"github.com/ecotoken/storefront/oracle"
	"github.com/ecotoken/storefront/settlement"
	"github.com/ecotoken/storefront/types"
	"github.com/ecotoken/storefront/wallet"
)

// Config configures a Store.
type Config struct {
	// RelayURL is the origin serving /api/projects and /api/ccep.
	RelayURL string

	// AuthToken is the client-side bearer value attached to receipt
	// submissions.
	AuthToken string

	// TickerURL and TickerPair override the price oracle defaults.
	TickerURL  string
	TickerPair string
}

// Store is the client-side entry point for the checkout flow.
type Store struct {
	catalog  *catalog.Client
	oracle   *oracle.Client
	receipts *settlement.ReceiptClient
	wallets  *wallet.Registry

	log        logger.Logger
	rec        metrics.Recorder
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a Store wired against the given relay.
func New(cfg *Config, opts ...Option) *Store {
	s := &Store{
		wallets: wallet.NewRegistry(),
		log:     logger.NoopLogger{},
		rec:     metrics.NoopRecorder{},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.catalog = catalog.New(catalog.Config{
		BaseURL:    cfg.RelayURL,
		Timeout:    s.timeout,
		HTTPClient: s.httpClient,
	})
	s.oracle = oracle.New(oracle.Config{
		Endpoint:   cfg.TickerURL,
		Pair:       cfg.TickerPair,
		Timeout:    s.timeout,
		HTTPClient: s.httpClient,
	})
	s.receipts = settlement.New(settlement.Config{
		BaseURL:    cfg.RelayURL,
		AuthToken:  cfg.AuthToken,
		Timeout:    s.timeout,
		HTTPClient: s.httpClient,
	})

	return s
}

// ConnectWallet registers a wallet for its network.
func (s *Store) ConnectWallet(w wallet.Wallet) {
	s.wallets.Add(w)
	s.log.Info("wallet connected", map[string]any{
		"network": w.Network().String(),
		"address": w.Address(),
	})
}

// Projects returns the catalog.
func (s *Store) Projects(ctx context.Context) ([]types.Project, error) {
	return s.catalog.Projects(ctx)
}

// NewSession resolves a project by ID and starts a checkout session on the
// given network's wallet. The session is returned even when the rate fetch
// fails; the caller sees the rate error and the session keeps purchase
// affordances disabled until a later LoadRate succeeds.
func (s *Store) NewSession(ctx context.Context, projectID string, network types.Network) (*checkout.Session, error) {
	project, err := s.catalog.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}

	w, err := s.wallets.Get(network)
	if err != nil {
		return nil, err
	}

	session := checkout.NewSession(project, w, s.receipts,
		checkout.WithLogger(s.log),
		checkout.WithMetrics(s.rec),
	)

	if err := session.LoadRate(ctx, s.oracle); err != nil {
		return session, err
	}

	return session, nil
}

// Close releases every connected wallet.
func (s *Store) Close() {
	s.wallets.Close()
}
