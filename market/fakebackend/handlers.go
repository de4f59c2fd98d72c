package fakebackend

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jrsteele09/skins-market-client/market"
	"github.com/jrsteele09/skins-market-client/session"
	"golang.org/x/crypto/bcrypt"
)

const (
	listingActive    = "ACTIVE"
	listingReserved  = "RESERVED"
	listingSold      = "SOLD"
	listingCancelled = "CANCELLED"
	minPasswordLen   = 6
)

func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || token == "" {
			fail(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		s.mu.Lock()
		acc, ok := s.userForTokenLocked(token)
		s.mu.Unlock()
		if !ok {
			fail(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set(ctxUserKey, acc)
		c.Set("token", token)
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		acc := currentUser(c)
		s.mu.Lock()
		admin := acc != nil && acc.user.IsAdmin()
		s.mu.Unlock()
		if !admin {
			fail(c, http.StatusForbidden, "Admin role required")
			return
		}
		c.Next()
	}
}

func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req session.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Malformed request body")
			return
		}
		if req.SteamID == "" || req.Nickname == "" || len(req.Password) < minPasswordLen {
			fail(c, http.StatusBadRequest, "steamId and nickname are required, password must be at least 6 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if _, taken := s.steamIDs[req.SteamID]; taken {
			fail(c, http.StatusConflict, "User with this steamId already exists")
			return
		}
		acc := s.addAccountLocked(req.SteamID, req.Nickname, hash, session.RoleUser)
		token, err := s.issueTokenLocked(acc.user.ID)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, session.AuthResponse{Token: token, User: acc.user})
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req session.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Malformed request body")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		userID, ok := s.steamIDs[req.SteamID]
		if !ok {
			fail(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		acc := s.accounts[userID]
		if bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
			fail(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		token, err := s.issueTokenLocked(userID)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, session.AuthResponse{Token: token, User: acc.user})
	}
}

func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		acc := currentUser(c)
		s.mu.Lock()
		defer s.mu.Unlock()
		c.JSON(http.StatusOK, acc.user)
	}
}

func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.tokens, c.GetString("token"))
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleSkins() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.ToLower(c.Query("q"))
		s.mu.Lock()
		defer s.mu.Unlock()

		out := make([]market.Skin, 0, len(s.skins))
		for _, skin := range s.skins {
			if q != "" && !strings.Contains(strings.ToLower(skin.Name), q) {
				continue
			}
			if !matches(c.Query("collection"), skin.Collection) ||
				!matches(c.Query("rarity"), skin.Rarity) ||
				!matches(c.Query("condition"), skin.Condition) {
				continue
			}
			out = append(out, skin)
		}
		sortByID(out, func(sk market.Skin) int64 { return sk.ID })
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleInstantPrice() gin.HandlerFunc {
	return func(c *gin.Context) {
		skinID, ok := pathID(c, "id")
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, exists := s.skins[skinID]; !exists {
			fail(c, http.StatusNotFound, "Skin not found: "+c.Param("id"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"price": s.instantPrices[skinID]})
	}
}

func (s *Server) handleListings() gin.HandlerFunc {
	return func(c *gin.Context) {
		var ownerID int64
		if raw := c.Query("ownerId"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				fail(c, http.StatusBadRequest, "ownerId must be a number")
				return
			}
			ownerID = id
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		out := make([]market.SaleListing, 0, len(s.listings))
		for _, l := range s.listings {
			if ownerID > 0 && l.SellerID != ownerID {
				continue
			}
			if ownerID == 0 && l.Status != listingActive {
				continue
			}
			out = append(out, *l)
		}
		sortByID(out, func(l market.SaleListing) int64 { return l.ID })
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleCreateListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req market.CreateSaleListingRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Price <= 0 {
			fail(c, http.StatusBadRequest, "sellerId, inventoryItemId and a positive price are required")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		acc, ok := s.accounts[req.SellerID]
		if !ok {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		var item *market.InventoryItem
		for i := range acc.inventory {
			if acc.inventory[i].ID == req.InventoryItemID {
				item = &acc.inventory[i]
			}
		}
		if item == nil {
			fail(c, http.StatusNotFound, "Inventory item not found")
			return
		}
		if !item.Tradable {
			fail(c, http.StatusBadRequest, "Item is not tradable")
			return
		}
		for _, l := range s.listings {
			if l.InventoryItemID == item.ID && (l.Status == listingActive || l.Status == listingReserved) {
				fail(c, http.StatusConflict, "Item is already listed")
				return
			}
		}

		l := &market.SaleListing{
			ID:              s.newIDLocked(),
			Price:           req.Price,
			Status:          listingActive,
			InventoryItemID: item.ID,
			SellerID:        req.SellerID,
			SkinID:          item.SkinID,
			SkinName:        item.SkinName,
			Rarity:          item.Rarity,
			Condition:       item.Condition,
			Collection:      item.Collection,
		}
		s.listings[l.ID] = l
		c.JSON(http.StatusOK, market.SaleListingCreated{ID: l.ID, Price: l.Price, Status: l.Status, InventoryItemID: l.InventoryItemID})
	}
}

func (s *Server) handleCancelListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.withSellerListing(c, func(l *market.SaleListing) {
			if l.Status != listingActive {
				fail(c, http.StatusConflict, "Listing is not active")
				return
			}
			l.Status = listingCancelled
			c.Status(http.StatusOK)
		})
	}
}

func (s *Server) handleInstantSell() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.withSellerListing(c, func(l *market.SaleListing) {
			price := s.instantPrices[l.SkinID]
			if price <= 0 {
				fail(c, http.StatusBadRequest, "Instant price is not set")
				return
			}
			if l.Status != listingActive {
				fail(c, http.StatusConflict, "Listing is not active")
				return
			}
			l.Status = listingSold
			acc := s.accounts[l.SellerID]
			acc.user.Balance += price
			acc.inventory = removeItem(acc.inventory, l.InventoryItemID)
			c.Status(http.StatusOK)
		})
	}
}

// withSellerListing resolves :id and ?sellerId and runs fn under the lock.
func (s *Server) withSellerListing(c *gin.Context, fn func(*market.SaleListing)) {
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	sellerID, err := strconv.ParseInt(c.Query("sellerId"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "sellerId is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l, exists := s.listings[listingID]
	if !exists {
		fail(c, http.StatusNotFound, "Sale listing not found")
		return
	}
	if l.SellerID != sellerID {
		fail(c, http.StatusForbidden, "Not your listing")
		return
	}
	fn(l)
}

func (s *Server) handleAddToCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req market.AddToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Malformed request body")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		l, ok := s.listings[req.SaleListingID]
		if !ok {
			fail(c, http.StatusNotFound, "Sale listing not found")
			return
		}
		if l.Status != listingActive {
			fail(c, http.StatusConflict, "Listing is not available")
			return
		}
		if l.SellerID == req.UserID {
			fail(c, http.StatusBadRequest, "Cannot buy your own listing")
			return
		}

		cart, ok := s.carts[req.UserID]
		if !ok {
			cart = &market.Cart{
				ID:        s.newIDLocked(),
				UserID:    req.UserID,
				Status:    market.CartStatusActive,
				CreatedAt: s.nowTime().Format(timeLayout),
				Items:     []market.CartItem{},
			}
			s.carts[req.UserID] = cart
		}
		listingID, inventoryID := l.ID, l.InventoryItemID
		cart.Items = append(cart.Items, market.CartItem{
			ID:              s.newIDLocked(),
			Price:           l.Price,
			ItemStatus:      listingReserved,
			SaleListingID:   &listingID,
			InventoryItemID: &inventoryID,
			SkinID:          l.SkinID,
			SkinName:        l.SkinName,
		})
		l.Status = listingReserved
		c.JSON(http.StatusOK, cart)
	}
}

func (s *Server) handleGetCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		cart, exists := s.carts[userID]
		if !exists {
			fail(c, http.StatusNotFound, "Active cart not found")
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func (s *Server) handleRemoveCartItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}
		itemID, ok := pathID(c, "itemId")
		if !ok {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		cart, exists := s.carts[userID]
		if !exists {
			fail(c, http.StatusNotFound, "Active cart not found")
			return
		}
		kept := cart.Items[:0]
		for _, item := range cart.Items {
			if item.ID == itemID {
				if item.SaleListingID != nil {
					if l, ok := s.listings[*item.SaleListingID]; ok {
						l.Status = listingActive
					}
				}
				continue
			}
			kept = append(kept, item)
		}
		cart.Items = kept
		if len(cart.Items) == 0 {
			delete(s.carts, userID)
			fail(c, http.StatusNotFound, "Active cart not found")
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func (s *Server) handleCheckout() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req market.CheckoutItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Malformed request body")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		cart, ok := s.carts[req.UserID]
		if !ok {
			fail(c, http.StatusNotFound, "Active cart not found")
			return
		}
		idx := -1
		for i, item := range cart.Items {
			if item.ID == req.CartItemID {
				idx = i
			}
		}
		if idx < 0 {
			fail(c, http.StatusNotFound, "Cart item not found")
			return
		}
		item := cart.Items[idx]
		buyer := s.accounts[req.UserID]
		if buyer.user.Balance < item.Price {
			fail(c, http.StatusBadRequest, "Insufficient balance")
			return
		}

		l := s.listings[*item.SaleListingID]
		seller := s.accounts[l.SellerID]
		buyer.user.Balance -= item.Price
		seller.user.Balance += item.Price
		for _, inv := range seller.inventory {
			if inv.ID == l.InventoryItemID {
				buyer.inventory = append(buyer.inventory, inv)
			}
		}
		seller.inventory = removeItem(seller.inventory, l.InventoryItemID)
		l.Status = listingSold
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		if len(cart.Items) == 0 {
			delete(s.carts, req.UserID)
		}
		c.String(http.StatusOK, "OK")
	}
}

func (s *Server) handleCreatePayment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req market.CreatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Malformed request body")
			return
		}
		if req.Amount <= 0 {
			fail(c, http.StatusBadRequest, "amount must be > 0")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.accounts[req.UserID]; !ok {
			fail(c, http.StatusNotFound, "User not found: "+strconv.FormatInt(req.UserID, 10))
			return
		}
		p := &market.Payment{
			ID:        s.newIDLocked(),
			Type:      req.Type,
			Method:    req.Method,
			Status:    req.Status,
			Amount:    req.Amount,
			CreatedAt: s.nowTime().Format(timeLayout),
			UserID:    req.UserID,
		}
		if p.Status == market.PaymentSuccess && !s.settleLocked(p) {
			fail(c, http.StatusBadRequest, "Insufficient balance")
			return
		}
		s.payments[p.ID] = p
		c.JSON(http.StatusOK, p)
	}
}

func (s *Server) handleListPayments() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
		if err != nil || userID <= 0 {
			fail(c, http.StatusBadRequest, "userId must be > 0")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		out := make([]market.Payment, 0)
		for _, p := range s.payments {
			if p.UserID == userID {
				out = append(out, *p)
			}
		}
		// newest first
		sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleGetPayment() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.withPayment(c, func(p *market.Payment) {
			c.JSON(http.StatusOK, p)
		})
	}
}

func (s *Server) handlePaymentStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := market.PaymentStatus(strings.ToUpper(c.Query("status")))
		if !status.Valid() {
			fail(c, http.StatusBadRequest, "Invalid status: "+c.Query("status"))
			return
		}
		s.withPayment(c, func(p *market.Payment) {
			if status == market.PaymentSuccess && p.Status != market.PaymentSuccess {
				if !s.settleLocked(p) {
					fail(c, http.StatusBadRequest, "Insufficient balance")
					return
				}
			}
			p.Status = status
			c.JSON(http.StatusOK, p)
		})
	}
}

func (s *Server) handleDeletePayment() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.withPayment(c, func(p *market.Payment) {
			delete(s.payments, p.ID)
			c.JSON(http.StatusOK, gin.H{"message": "deleted"})
		})
	}
}

func (s *Server) withPayment(c *gin.Context, fn func(*market.Payment)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.payments[id]
	if !exists {
		fail(c, http.StatusNotFound, "PaymentOperation not found: "+c.Param("id"))
		return
	}
	fn(p)
}

// settleLocked applies a payment to the balance. Withdrawals cannot overdraw.
func (s *Server) settleLocked(p *market.Payment) bool {
	acc := s.accounts[p.UserID]
	switch p.Type {
	case market.PaymentDeposit:
		acc.user.Balance += p.Amount
	case market.PaymentWithdraw:
		if acc.user.Balance < p.Amount {
			return false
		}
		acc.user.Balance -= p.Amount
	}
	return true
}

func (s *Server) handleAdminUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.JSON(http.StatusOK, s.sortedUsersLocked())
	}
}

func (s *Server) handleSetRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "id")
		if !ok {
			return
		}
		role := session.Role(strings.ToUpper(c.Query("role")))
		if !role.Valid() {
			fail(c, http.StatusBadRequest, "Invalid role: "+c.Query("role"))
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		acc, exists := s.accounts[userID]
		if !exists {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		acc.user.Role = role
		c.JSON(http.StatusOK, acc.user)
	}
}

func (s *Server) handleSetInstantPrice() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req market.InstantPriceRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.SkinID <= 0 || req.Price <= 0 {
			fail(c, http.StatusBadRequest, "skinId and price must be >= 1")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, exists := s.skins[req.SkinID]; !exists {
			fail(c, http.StatusNotFound, "Skin not found")
			return
		}
		s.instantPrices[req.SkinID] = req.Price
		c.JSON(http.StatusOK, market.InstantBuyPrice{
			ID:        req.SkinID,
			Price:     req.Price,
			UpdatedAt: s.nowTime().Format(timeLayout),
			SkinID:    req.SkinID,
		})
	}
}

func (s *Server) handleCleanup() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, market.CleanupResult{Cleared: 0})
	}
}

func (s *Server) handleUserProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "id")
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		acc, exists := s.accounts[userID]
		if !exists {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		c.JSON(http.StatusOK, market.UserProfile{
			ID:       acc.user.ID,
			SteamID:  acc.user.SteamID,
			Nickname: acc.user.Nickname,
			Balance:  acc.user.Balance,
		})
	}
}

func (s *Server) handleInventory() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "id")
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		acc, exists := s.accounts[userID]
		if !exists {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		out := append([]market.InventoryItem{}, acc.inventory...)
		c.JSON(http.StatusOK, out)
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, name+" must be > 0")
		return 0, false
	}
	return id, true
}

func matches(filter, value string) bool {
	return filter == "" || strings.EqualFold(filter, value)
}

func removeItem(items []market.InventoryItem, id int64) []market.InventoryItem {
	out := items[:0]
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

func sortByID[T any](items []T, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
