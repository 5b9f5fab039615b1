// Command checkout runs the purchase flow end to end without a browser:
// fetch the catalog, quote the selection at the live rate, transfer from a
// locally held key, and hand the receipt to the relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"

	storefront "github.com/ecotoken/storefront"
	"github.com/ecotoken/storefront/logger"
	"github.com/ecotoken/storefront/types"
	"github.com/ecotoken/storefront/wallet"
)

func main() {
	relayURL := flag.String("relay", envOr("RELAY_URL", "http://localhost:8080"), "relay origin")
	projectID := flag.String("project", "", "project ID to purchase")
	quantity := flag.String("quantity", "1", "credit quantity")
	network := flag.String("network", "solana", "wallet network (solana, celo)")
	rpcURL := flag.String("rpc", os.Getenv("WALLET_RPC_ENDPOINT"), "chain RPC endpoint")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "info"), "log level")
	flag.Parse()

	if *projectID == "" {
		log.Fatal("--project is required")
	}

	privateKey := os.Getenv("WALLET_PRIVATE_KEY")
	if privateKey == "" {
		log.Fatal("WALLET_PRIVATE_KEY is required")
	}

	qty, err := decimal.NewFromString(*quantity)
	if err != nil {
		log.Fatalf("invalid quantity %q: %v", *quantity, err)
	}

	ctx := context.Background()
	logg := logger.NewDevelopmentLogger(*logLevel)

	store := storefront.New(&storefront.Config{
		RelayURL:  *relayURL,
		AuthToken: os.Getenv("CLIENT_AUTH_TOKEN"),
	}, storefront.WithLogger(logg))
	defer store.Close()

	w, err := connectWallet(ctx, types.Network(*network), *rpcURL, privateKey)
	if err != nil {
		log.Fatalf("connect wallet: %v", err)
	}
	store.ConnectWallet(w)

	session, err := store.NewSession(ctx, *projectID, w.Network())
	if err != nil {
		log.Fatalf("start session: %v", err)
	}
	session.SetQuantity(qty)

	quote := session.Quote()
	fmt.Printf("%s credit(s) of %s ≈ %s tokens ($%s)\n",
		qty, session.Project().Name, quote.TokenAmount.StringFixed(4), quote.FiatTotal.StringFixed(2))

	result := session.Confirm(ctx)
	if result.Err != nil {
		if result.Confirmed {
			// Funds moved but settlement was not notified; keep the hash
			// visible for out-of-band reconciliation.
			fmt.Printf("transfer confirmed (hash %s) but receipt relay failed: %v\n", result.TxHash, result.Err)
			os.Exit(1)
		}
		log.Fatalf("checkout failed: %v", result.Err)
	}

	fmt.Printf("purchase successful, transaction hash: %s\n", result.TxHash)
}

func connectWallet(ctx context.Context, network types.Network, rpcURL, privateKey string) (wallet.Wallet, error) {
	switch {
	case network.IsSolana():
		return wallet.NewSolanaWallet(rpcURL, privateKey)
	case network.IsEVM():
		return wallet.NewEVMWallet(ctx, rpcURL, privateKey)
	default:
		return nil, fmt.Errorf("unsupported wallet network: %s", network)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
