package market

import "context"

func (c *Client) RentalListings(ctx context.Context) ([]RentalListing, error) {
	var out []RentalListing
	if err := c.gw.Get(ctx, "/listings/rent", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRentalListing(ctx context.Context, req CreateRentalListingRequest) (*RentalListing, error) {
	if err := validateID("ownerId", req.OwnerID); err != nil {
		return nil, err
	}
	if err := validateID("inventoryItemId", req.InventoryItemID); err != nil {
		return nil, err
	}
	if err := validateAmount("pricePerDay", req.PricePerDay); err != nil {
		return nil, err
	}
	if err := validateDays("maxDays", req.MaxDays); err != nil {
		return nil, err
	}

	var out RentalListing
	if err := c.gw.Post(ctx, "/listings/rent", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rent takes a rental listing for a number of days. A rental the backend declined comes
// back with Success false and a message, not as an error.
func (c *Client) Rent(ctx context.Context, req RentRequest) (*RentResponse, error) {
	if err := validateID("renterId", req.RenterID); err != nil {
		return nil, err
	}
	if err := validateID("announcementId", req.AnnouncementID); err != nil {
		return nil, err
	}
	if err := validateDays("days", req.Days); err != nil {
		return nil, err
	}

	var out RentResponse
	if err := c.gw.Post(ctx, "/rent", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
