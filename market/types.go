package market

import "github.com/jrsteele09/skins-market-client/session"

// Timestamps are kept as the backend sends them: local date-times without a zone.

type Skin struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Collection string `json:"collection"`
	Rarity     string `json:"rarity"`
	Condition  string `json:"condition"`
}

// SkinFilter narrows the catalogue. Empty fields are not sent.
type SkinFilter struct {
	Query      string
	Collection string
	Rarity     string
	Condition  string
}

type SaleListing struct {
	ID              int64  `json:"id"`
	Price           int64  `json:"price"`
	Status          string `json:"status"`
	InventoryItemID int64  `json:"inventoryItemId"`
	SellerID        int64  `json:"sellerId"`
	SkinID          int64  `json:"skinId"`
	SkinName        string `json:"skinName"`
	Rarity          string `json:"rarity"`
	Condition       string `json:"condition"`
	Collection      string `json:"collection"`
}

type SaleListingCreated struct {
	ID              int64  `json:"id"`
	Price           int64  `json:"price"`
	Status          string `json:"status"`
	InventoryItemID int64  `json:"inventoryItemId"`
}

type CreateSaleListingRequest struct {
	SellerID        int64 `json:"sellerId"`
	InventoryItemID int64 `json:"inventoryItemId"`
	Price           int64 `json:"price"`
}

type InstantPrice struct {
	Price int64 `json:"price"`
}

type PricePoint struct {
	Time  string `json:"time"`
	Price int64  `json:"price"`
}

const CartStatusActive = "ACTIVE"

type Cart struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	Status        string     `json:"status"`
	ReservedUntil *string    `json:"reservedUntil"`
	CreatedAt     string     `json:"createdAt"`
	Items         []CartItem `json:"items"`
}

// Total sums the item prices.
func (c *Cart) Total() int64 {
	if c == nil {
		return 0
	}
	var total int64
	for _, item := range c.Items {
		total += item.Price
	}
	return total
}

type CartItem struct {
	ID              int64   `json:"id"`
	Price           int64   `json:"price"`
	ItemStatus      string  `json:"itemStatus"`
	ReservedUntil   *string `json:"reservedUntil"`
	SaleListingID   *int64  `json:"saleListingId"`
	InventoryItemID *int64  `json:"inventoryItemId"`
	SkinID          int64   `json:"skinId"`
	SkinName        string  `json:"skinName"`
	TransactionID   *int64  `json:"transactionId"`
}

type AddToCartRequest struct {
	UserID        int64 `json:"userId"`
	SaleListingID int64 `json:"saleListingId"`
}

type CheckoutItemRequest struct {
	UserID     int64 `json:"userId"`
	CartItemID int64 `json:"cartItemId"`
}

type PaymentType string

const (
	PaymentDeposit  PaymentType = "DEPOSIT"
	PaymentWithdraw PaymentType = "WITHDRAW"
)

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "CARD"
	MethodCrypto PaymentMethod = "CRYPTO"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCard || m == MethodCrypto
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentSuccess || s == PaymentFailed
}

type Payment struct {
	ID        int64         `json:"id"`
	Type      PaymentType   `json:"type"`
	Method    PaymentMethod `json:"method"`
	Status    PaymentStatus `json:"status"`
	Amount    int64         `json:"amount"`
	CreatedAt string        `json:"createdAt"`
	UserID    int64         `json:"userId"`
}

type CreatePaymentRequest struct {
	UserID int64         `json:"userId"`
	Type   PaymentType   `json:"type"`
	Method PaymentMethod `json:"method"`
	Status PaymentStatus `json:"status"`
	Amount int64         `json:"amount"`
}

type RentalListing struct {
	ListingID   int64  `json:"listingId"`
	PricePerDay int64  `json:"pricePerDay"`
	MaxDays     int    `json:"maxDays"`
	SkinID      int64  `json:"skinId"`
	SkinName    string `json:"skinName"`
	OwnerID     int64  `json:"ownerId"`
}

type CreateRentalListingRequest struct {
	OwnerID         int64 `json:"ownerId"`
	InventoryItemID int64 `json:"inventoryItemId"`
	PricePerDay     int64 `json:"pricePerDay"`
	MaxDays         int   `json:"maxDays"`
}

type RentRequest struct {
	RenterID       int64 `json:"renterId"`
	AnnouncementID int64 `json:"announcementId"`
	Days           int   `json:"days"`
}

type RentResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	RentalContractID *int64 `json:"rentalContractId"`
	TotalCost        *int64 `json:"totalCost"`
}

type Attachment struct {
	ID       int64  `json:"id,omitempty"`
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
}

type Ticket struct {
	ID          int64        `json:"id"`
	Topic       string       `json:"topic"`
	Description string       `json:"description"`
	UserID      int64        `json:"userId"`
	Status      string       `json:"status"`
	CreatedAt   string       `json:"createdAt"`
	ClosedAt    *string      `json:"closedAt"`
	Attachments []Attachment `json:"attachments"`
}

type CreateTicketRequest struct {
	UserID      int64        `json:"userId"`
	Topic       string       `json:"topic"`
	Description string       `json:"description"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type DeletionRequest struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"userId"`
	Status    string  `json:"status"`
	Reason    *string `json:"reason"`
	CreatedAt string  `json:"createdAt"`
	DecidedAt *string `json:"decidedAt"`
	DecidedBy *int64  `json:"decidedBy"`
}

type InstantBuyPrice struct {
	ID        int64  `json:"id"`
	Price     int64  `json:"price"`
	UpdatedAt string `json:"updatedAt"`
	SkinID    int64  `json:"skinId"`
	UserID    *int64 `json:"userId"`
}

type InstantPriceRequest struct {
	SkinID int64 `json:"skinId"`
	Price  int64 `json:"price"`
}

type CleanupResult struct {
	Cleared int `json:"cleared"`
}

// AdminUser is the account view returned by the admin endpoints.
type AdminUser = session.User

type UserProfile struct {
	ID       int64  `json:"id"`
	SteamID  string `json:"steamId"`
	Nickname string `json:"nickname"`
	Balance  int64  `json:"balance"`
}

type InventoryItem struct {
	ID            int64  `json:"id"`
	OwnershipFlag string `json:"ownershipFlag"`
	ReceivedAt    string `json:"receivedAt"`
	Tradable      bool   `json:"tradable"`
	SkinID        int64  `json:"skinId"`
	SkinName      string `json:"skinName"`
	Collection    string `json:"collection"`
	Rarity        string `json:"rarity"`
	Condition     string `json:"condition"`
}
