package storefront

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotoken/storefront/types"
)

const (
	payerAddress     = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	recipientAddress = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
)

type fakeWallet struct {
	lastAmount *big.Int
}

func (f *fakeWallet) Network() types.Network { return types.NetworkSolana }
func (f *fakeWallet) Address() string        { return payerAddress }
func (f *fakeWallet) Close()                 {}

func (f *fakeWallet) SubmitTransfer(ctx context.Context, to string, baseUnits *big.Int) (string, error) {
	f.lastAmount = new(big.Int).Set(baseUnits)
	return "5j7s88aDvqKDGpHSLMnLzkCjXqnVXCGoXcY1rcCU5aotVjxTTbg6mjKrjZcbUUyVSZTENgQ4HpauB3g1BdkWAMTR", nil
}

func (f *fakeWallet) WaitForConfirmation(ctx context.Context, hash string) error { return nil }

func TestStoreCheckoutFlow(t *testing.T) {
	var relayedReceipt map[string]interface{}

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects":
			w.Write([]byte(`{"projects":[{"ID":"prj-1","active":true,"name":"Mangrove Restoration","price":10,
				"solana_wallet":"` + recipientAddress + `"}]}`))
		case "/api/ccep":
			assert.Equal(t, "client-token", r.Header.Get("Authorization"))
			relayedReceipt = map[string]interface{}{}
			require.NoError(t, jsonDecode(r, &relayedReceipt))
			w.Write([]byte(`{"success":true,"data":{"id":"receipt-1"}}`))
		default:
			t.Errorf("unexpected relay path %s", r.URL.Path)
		}
	}))
	defer relay.Close()

	ticker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"APTUSDC","price":"8"}`))
	}))
	defer ticker.Close()

	store := New(&Config{
		RelayURL:  relay.URL,
		AuthToken: "client-token",
		TickerURL: ticker.URL,
	})
	defer store.Close()

	w := &fakeWallet{}
	store.ConnectWallet(w)

	session, err := store.NewSession(context.Background(), "prj-1", types.NetworkSolana)
	require.NoError(t, err)
	require.Equal(t, types.StateRateReady, session.State())

	session.SetQuantity(decimal.NewFromInt(2))
	require.NotNil(t, session.Quote())

	result := session.Confirm(context.Background())
	require.NoError(t, result.Err)
	assert.Equal(t, types.StateSuccess, result.State)
	assert.Zero(t, w.lastAmount.Cmp(big.NewInt(250000000)))

	require.NotNil(t, relayedReceipt)
	assert.Equal(t, "prj-1", relayedReceipt["projectId"])
	assert.Equal(t, 2.5, relayedReceipt["aptAmount"])
	assert.Equal(t, recipientAddress, relayedReceipt["toaddress"])
	assert.Equal(t, payerAddress, relayedReceipt["walletAddress"])
}

func TestStoreNewSessionUnknownProject(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"projects":[]}`))
	}))
	defer relay.Close()

	store := New(&Config{RelayURL: relay.URL})
	store.ConnectWallet(&fakeWallet{})

	_, err := store.NewSession(context.Background(), "prj-missing", types.NetworkSolana)
	var storeErr *types.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, types.ErrProjectNotFound, storeErr.Code)
}

func TestStoreNewSessionRateDownStillReturnsSession(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"projects":[{"ID":"prj-1","name":"Mangrove Restoration","price":10,
			"solana_wallet":"` + recipientAddress + `"}]}`))
	}))
	defer relay.Close()

	ticker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ticker.Close()

	store := New(&Config{RelayURL: relay.URL, TickerURL: ticker.URL})
	store.ConnectWallet(&fakeWallet{})

	session, err := store.NewSession(context.Background(), "prj-1", types.NetworkSolana)
	require.Error(t, err)
	require.NotNil(t, session, "session survives an absent rate")
	assert.Nil(t, session.Quote())
	assert.False(t, session.CanConfirm())
}

func jsonDecode(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
