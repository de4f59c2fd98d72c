package market_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/skins-market-client/gateway"
	"github.com/jrsteele09/skins-market-client/market"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	method string
	uri    string
	body   string
}

// recordingClient answers every call with reply and records what was sent.
func recordingClient(t *testing.T, reply string) (*market.Client, func() []recordedCall) {
	t.Helper()
	var (
		lock  sync.Mutex
		calls []recordedCall
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		lock.Lock()
		calls = append(calls, recordedCall{method: r.Method, uri: r.URL.RequestURI(), body: string(b)})
		lock.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(ts.Close)
	return market.New(gateway.New(ts.URL)), func() []recordedCall {
		lock.Lock()
		defer lock.Unlock()
		return append([]recordedCall(nil), calls...)
	}
}

func TestEndpointShapes(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		reply  string
		call   func(c *market.Client) error
		method string
		uri    string
		body   string
	}{
		{
			name:   "skins filter",
			reply:  `[]`,
			call:   func(c *market.Client) error { _, err := c.Skins(ctx, market.SkinFilter{Query: "ak 47", Rarity: "Covert"}); return err },
			method: http.MethodGet,
			uri:    "/market/skins?q=ak+47&rarity=Covert",
		},
		{
			name:   "all sale listings",
			reply:  `[]`,
			call:   func(c *market.Client) error { _, err := c.SaleListings(ctx, 0); return err },
			method: http.MethodGet,
			uri:    "/market/sale-listings",
		},
		{
			name:   "cancel listing",
			reply:  `{}`,
			call:   func(c *market.Client) error { return c.CancelSaleListing(ctx, 12, 3) },
			method: http.MethodPost,
			uri:    "/market/sale-listings/12/cancel?sellerId=3",
			body:   `{}`,
		},
		{
			name:   "price history",
			reply:  `[{"time":"2025-01-01T00:00:00","price":10}]`,
			call:   func(c *market.Client) error { _, err := c.PriceHistory(ctx, 4); return err },
			method: http.MethodGet,
			uri:    "/skins/4/price-history",
		},
		{
			name:   "rental listings",
			reply:  `[]`,
			call:   func(c *market.Client) error { _, err := c.RentalListings(ctx); return err },
			method: http.MethodGet,
			uri:    "/listings/rent",
		},
		{
			name:  "create rental listing",
			reply: `{"listingId":1}`,
			call: func(c *market.Client) error {
				_, err := c.CreateRentalListing(ctx, market.CreateRentalListingRequest{OwnerID: 1, InventoryItemID: 2, PricePerDay: 30, MaxDays: 7})
				return err
			},
			method: http.MethodPost,
			uri:    "/listings/rent",
			body:   `{"ownerId":1,"inventoryItemId":2,"pricePerDay":30,"maxDays":7}`,
		},
		{
			name:   "rent",
			reply:  `{"success":true,"rentalContractId":9,"totalCost":90}`,
			call:   func(c *market.Client) error { _, err := c.Rent(ctx, market.RentRequest{RenterID: 2, AnnouncementID: 1, Days: 3}); return err },
			method: http.MethodPost,
			uri:    "/rent",
			body:   `{"renterId":2,"announcementId":1,"days":3}`,
		},
		{
			name:  "create ticket",
			reply: `{"id":1}`,
			call: func(c *market.Client) error {
				_, err := c.CreateTicket(ctx, market.CreateTicketRequest{UserID: 1, Topic: " Payment ", Description: "stuck"})
				return err
			},
			method: http.MethodPost,
			uri:    "/tickets",
			body:   `{"userId":1,"topic":"Payment","description":"stuck"}`,
		},
		{
			name:   "tickets",
			reply:  `[]`,
			call:   func(c *market.Client) error { _, err := c.Tickets(ctx, 1); return err },
			method: http.MethodGet,
			uri:    "/tickets?userId=1",
		},
		{
			name:   "ticket",
			reply:  `{"id":5}`,
			call:   func(c *market.Client) error { _, err := c.Ticket(ctx, 5); return err },
			method: http.MethodGet,
			uri:    "/tickets/5",
		},
		{
			name:   "attachments",
			reply:  `[]`,
			call:   func(c *market.Client) error { _, err := c.Attachments(ctx, 5); return err },
			method: http.MethodGet,
			uri:    "/tickets/5/attachments",
		},
		{
			name:  "add attachment",
			reply: `{"id":8,"fileName":"a.png","fileUrl":"https://x/a.png"}`,
			call: func(c *market.Client) error {
				_, err := c.AddAttachment(ctx, 5, market.Attachment{ID: 99, FileName: "a.png", FileURL: "https://x/a.png"})
				return err
			},
			method: http.MethodPost,
			uri:    "/tickets/5/attachments",
			body:   `{"fileName":"a.png","fileUrl":"https://x/a.png"}`,
		},
		{
			name:   "delete attachment",
			reply:  `{}`,
			call:   func(c *market.Client) error { return c.DeleteAttachment(ctx, 8) },
			method: http.MethodDelete,
			uri:    "/tickets/attachments/8",
		},
		{
			name:   "request deletion",
			reply:  `{"id":3,"status":"PENDING"}`,
			call:   func(c *market.Client) error { _, err := c.RequestDeletion(ctx, 1); return err },
			method: http.MethodPost,
			uri:    "/deletion-requests",
			body:   `{"userId":1}`,
		},
		{
			name:   "deletion requests",
			reply:  `[]`,
			call:   func(c *market.Client) error { _, err := c.DeletionRequests(ctx, 1); return err },
			method: http.MethodGet,
			uri:    "/deletion-requests?userId=1",
		},
		{
			name:   "cancel deletion request",
			reply:  `{"id":3}`,
			call:   func(c *market.Client) error { _, err := c.CancelDeletionRequest(ctx, 3); return err },
			method: http.MethodPatch,
			uri:    "/deletion-requests/3/cancel",
			body:   `{}`,
		},
		{
			name:   "admin deletion requests",
			reply:  `[]`,
			call:   func(c *market.Client) error { _, err := c.AdminDeletionRequests(ctx); return err },
			method: http.MethodGet,
			uri:    "/admin/deletion-requests",
		},
		{
			name:   "approve deletion",
			reply:  `{"id":3,"status":"APPROVED"}`,
			call:   func(c *market.Client) error { _, err := c.ApproveDeletionRequest(ctx, 3); return err },
			method: http.MethodPatch,
			uri:    "/admin/deletion-requests/3/approve",
			body:   `{}`,
		},
		{
			name:   "reject deletion",
			reply:  `{"id":3,"status":"REJECTED","reason":"open orders"}`,
			call:   func(c *market.Client) error { _, err := c.RejectDeletionRequest(ctx, 3, " open orders "); return err },
			method: http.MethodPatch,
			uri:    "/admin/deletion-requests/3/reject",
			body:   `{"reason":"open orders"}`,
		},
		{
			name:   "set role",
			reply:  `{"id":5,"role":"ADMIN"}`,
			call:   func(c *market.Client) error { _, err := c.SetUserRole(ctx, 5, "ADMIN"); return err },
			method: http.MethodPatch,
			uri:    "/admin/users/5/role?role=ADMIN",
			body:   `{}`,
		},
		{
			name:   "cleanup reservations",
			reply:  `{"cleared":4}`,
			call:   func(c *market.Client) error { _, err := c.CleanupReservations(ctx); return err },
			method: http.MethodPost,
			uri:    "/admin/cleanup-reservations",
			body:   `{}`,
		},
		{
			name:   "user profile",
			reply:  `{"id":1,"nickname":"alice"}`,
			call:   func(c *market.Client) error { _, err := c.UserProfile(ctx, 1); return err },
			method: http.MethodGet,
			uri:    "/users/1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, calls := recordingClient(t, tc.reply)
			require.NoError(t, tc.call(c))
			recorded := calls()
			require.Len(t, recorded, 1)

			got := recorded[0]
			require.Equal(t, tc.method, got.method)
			require.Equal(t, tc.uri, got.uri)
			if tc.body == "" {
				require.Empty(t, got.body)
			} else {
				require.JSONEq(t, tc.body, got.body)
			}
		})
	}
}

func TestDecodedShapes(t *testing.T) {
	ctx := context.Background()

	c, _ := recordingClient(t, `{"cleared":4}`)
	cleared, err := c.CleanupReservations(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, cleared)

	c, _ = recordingClient(t, `{"success":false,"message":"already rented"}`)
	resp, err := c.Rent(ctx, market.RentRequest{RenterID: 2, AnnouncementID: 1, Days: 3})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "already rented", resp.Message)
	require.Nil(t, resp.TotalCost)

	c, _ = recordingClient(t, `{"id":3,"userId":1,"status":"REJECTED","reason":"open orders","decidedBy":7}`)
	req, err := c.RejectDeletionRequest(ctx, 3, "open orders")
	require.NoError(t, err)
	require.Equal(t, "open orders", *req.Reason)
	require.Equal(t, int64(7), *req.DecidedBy)

	c, _ = recordingClient(t, `{"price":0}`)
	price, err := c.InstantPrice(ctx, 2)
	require.NoError(t, err)
	require.Zero(t, price)
}

func TestMeRejectsEmptyAccount(t *testing.T) {
	c, _ := recordingClient(t, `{}`)
	_, err := c.Me(context.Background())
	require.Error(t, err)
}

func TestCartTotal(t *testing.T) {
	var cart *market.Cart
	require.Zero(t, cart.Total())

	require.NoError(t, json.Unmarshal([]byte(`{"items":[{"price":100},{"price":250}]}`), &cart))
	require.Equal(t, int64(350), cart.Total())
}
