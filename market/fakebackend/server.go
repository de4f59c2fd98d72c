// Package fakebackend is an in-memory stand-in for the market backend. It speaks the same
// paths and JSON shapes, answers errors as {"message": ...} and issues opaque session
// tokens unless configured to sign JWTs.
package fakebackend

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/skins-market-client/market"
	"github.com/jrsteele09/skins-market-client/session"
	"golang.org/x/crypto/bcrypt"
)

const (
	timeLayout = "2006-01-02T15:04:05"
	ctxUserKey = "user"
)

type account struct {
	user         session.User
	passwordHash []byte
	inventory    []market.InventoryItem
}

// Server holds the whole backend state behind one lock.
type Server struct {
	router  *gin.Engine
	nowTime func() time.Time

	jwtSecret []byte
	jwtTTL    time.Duration

	mu            sync.Mutex
	nextID        int64
	accounts      map[int64]*account
	steamIDs      map[string]int64
	tokens        map[string]int64
	skins         map[int64]market.Skin
	instantPrices map[int64]int64
	listings      map[int64]*market.SaleListing
	carts         map[int64]*market.Cart // by user id
	payments      map[int64]*market.Payment
}

type Option func(*Server)

// WithNowTime sets the backend clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		if nowFunc != nil {
			s.nowTime = nowFunc
		}
	}
}

// WithJWT makes the backend issue HS256 JWTs valid for ttl instead of opaque tokens.
func WithJWT(secret string, ttl time.Duration) Option {
	return func(s *Server) {
		s.jwtSecret = []byte(secret)
		s.jwtTTL = ttl
	}
}

func New(options ...Option) *Server {
	s := &Server{
		router:        gin.New(),
		nowTime:       time.Now,
		accounts:      make(map[int64]*account),
		steamIDs:      make(map[string]int64),
		tokens:        make(map[string]int64),
		skins:         make(map[int64]market.Skin),
		instantPrices: make(map[int64]int64),
		listings:      make(map[int64]*market.SaleListing),
		carts:         make(map[int64]*market.Cart),
		payments:      make(map[int64]*market.Payment),
	}
	for _, opt := range options {
		opt(s)
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, typically mounted on an httptest.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	auth := s.router.Group("/auth")
	{
		auth.POST("/register", s.handleRegister())
		auth.POST("/login", s.handleLogin())
		auth.GET("/me", s.requireUser(), s.handleMe())
		auth.POST("/logout", s.requireUser(), s.handleLogout())
	}

	mkt := s.router.Group("/market", s.requireUser())
	{
		mkt.GET("/skins", s.handleSkins())
		mkt.GET("/skins/:id/instant-price", s.handleInstantPrice())
		mkt.GET("/sale-listings", s.handleListings())
		mkt.POST("/sale-listings", s.handleCreateListing())
		mkt.POST("/sale-listings/:id/cancel", s.handleCancelListing())
		mkt.POST("/sale-listings/:id/instant-sell", s.handleInstantSell())
	}

	cart := s.router.Group("/cart", s.requireUser())
	{
		cart.POST("/item", s.handleAddToCart())
		cart.POST("/checkout-item", s.handleCheckout())
		cart.GET("/:userId", s.handleGetCart())
		cart.DELETE("/:userId/items/:itemId", s.handleRemoveCartItem())
	}

	payments := s.router.Group("/payments", s.requireUser())
	{
		payments.POST("", s.handleCreatePayment())
		payments.GET("", s.handleListPayments())
		payments.GET("/:id", s.handleGetPayment())
		payments.PATCH("/:id/status", s.handlePaymentStatus())
		payments.DELETE("/:id", s.handleDeletePayment())
	}

	admin := s.router.Group("/admin", s.requireUser(), s.requireAdmin())
	{
		admin.GET("/users", s.handleAdminUsers())
		admin.PATCH("/users/:id/role", s.handleSetRole())
		admin.POST("/instant-prices", s.handleSetInstantPrice())
		admin.POST("/cleanup-reservations", s.handleCleanup())
	}

	users := s.router.Group("/users", s.requireUser())
	{
		users.GET("/:id", s.handleUserProfile())
		users.GET("/:id/inventory", s.handleInventory())
	}

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// AddUser seeds an account and returns it.
func (s *Server) AddUser(steamID, nickname, password string, role session.Role) session.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAccountLocked(steamID, nickname, hash, role).user
}

// AddSkin seeds a catalogue entry, with an instant price when instantPrice > 0.
func (s *Server) AddSkin(name, collection, rarity, condition string, instantPrice int64) market.Skin {
	s.mu.Lock()
	defer s.mu.Unlock()
	skin := market.Skin{ID: s.newIDLocked(), Name: name, Collection: collection, Rarity: rarity, Condition: condition}
	s.skins[skin.ID] = skin
	if instantPrice > 0 {
		s.instantPrices[skin.ID] = instantPrice
	}
	return skin
}

// GiveItem puts a skin into a user's inventory.
func (s *Server) GiveItem(userID, skinID int64, tradable bool) market.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	skin := s.skins[skinID]
	item := market.InventoryItem{
		ID:            s.newIDLocked(),
		OwnershipFlag: "OWNED",
		ReceivedAt:    s.nowTime().Format(timeLayout),
		Tradable:      tradable,
		SkinID:        skin.ID,
		SkinName:      skin.Name,
		Collection:    skin.Collection,
		Rarity:        skin.Rarity,
		Condition:     skin.Condition,
	}
	acc := s.accounts[userID]
	acc.inventory = append(acc.inventory, item)
	return item
}

// Balance returns a user's balance.
func (s *Server) Balance(userID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[userID]; ok {
		return acc.user.Balance
	}
	return 0
}

// ActiveTokens returns how many session tokens are live.
func (s *Server) ActiveTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func (s *Server) addAccountLocked(steamID, nickname string, hash []byte, role session.Role) *account {
	acc := &account{
		user: session.User{
			ID:        s.newIDLocked(),
			SteamID:   steamID,
			Nickname:  nickname,
			Role:      role,
			CreatedAt: s.nowTime().Format(timeLayout),
		},
		passwordHash: hash,
	}
	s.accounts[acc.user.ID] = acc
	s.steamIDs[steamID] = acc.user.ID
	return acc
}

func (s *Server) newIDLocked() int64 {
	s.nextID++
	return s.nextID
}

// issueTokenLocked creates a session token for userID.
func (s *Server) issueTokenLocked(userID int64) (string, error) {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if s.jwtSecret != nil {
		now := s.nowTime()
		signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
			Subject:   s.accounts[userID].user.SteamID,
			ID:        token,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.jwtTTL)),
		}).SignedString(s.jwtSecret)
		if err != nil {
			return "", err
		}
		token = signed
	}
	s.tokens[token] = userID
	return token, nil
}

// userForTokenLocked resolves a bearer token, verifying it when JWTs are issued.
func (s *Server) userForTokenLocked(token string) (*account, bool) {
	if s.jwtSecret != nil {
		parsed, err := jwtlib.ParseWithClaims(token, &jwtlib.RegisteredClaims{}, func(_ *jwtlib.Token) (any, error) {
			return s.jwtSecret, nil
		}, jwtlib.WithTimeFunc(s.nowTime), jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			return nil, false
		}
	}
	userID, ok := s.tokens[token]
	if !ok {
		return nil, false
	}
	acc, ok := s.accounts[userID]
	return acc, ok
}

func (s *Server) sortedUsersLocked() []session.User {
	out := make([]session.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

func currentUser(c *gin.Context) *account {
	v, _ := c.Get(ctxUserKey)
	acc, _ := v.(*account)
	return acc
}
