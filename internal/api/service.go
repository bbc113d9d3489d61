package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketcore/internal/engine"
	"marketcore/internal/models"
	"marketcore/internal/persistence"
	"marketcore/internal/security"
	"marketcore/internal/store"
)

// DefaultStartingBalance is the balance every new user is credited with.
// Callers that want a different starting balance for a given deployment use
// NewWithStartingBalance.
var DefaultStartingBalance = decimal.NewFromInt(1000)

// Service is the single entry point a caller uses to drive the engine. It
// owns the in-memory stores, the trade/settlement engines, and the
// sanitizer, and translates every internal error into the closed sentinel
// set declared in errors.go.
type Service struct {
	markets         *store.MarketStore
	users           *store.UserStore
	trade           *engine.TradeEngine
	settlement      *engine.SettlementEngine
	sanitizer       *security.Sanitizer
	startingBalance decimal.Decimal
}

// New builds a Service crediting every new user with DefaultStartingBalance.
func New(clock engine.Clock) *Service {
	return NewWithStartingBalance(clock, DefaultStartingBalance)
}

// NewWithStartingBalance builds a Service with a deployment-configured
// starting balance (internal/config.Config.DefaultStartingBalance), rather
// than the package default.
func NewWithStartingBalance(clock engine.Clock, startingBalance decimal.Decimal) *Service {
	markets := store.NewMarketStore()
	users := store.NewUserStore()
	return &Service{
		markets:         markets,
		users:           users,
		trade:           engine.NewTradeEngine(markets, users, clock),
		settlement:      engine.NewSettlementEngine(markets, users, clock),
		sanitizer:       security.NewSanitizer(),
		startingBalance: startingBalance,
	}
}

// LoadFrom repopulates the in-memory stores from a persistence backend.
// It is the caller's responsibility to invoke this once at boot, before
// serving any operation below.
func (s *Service) LoadFrom(backend persistence.Backend) error {
	snap, err := backend.LoadAll()
	if err != nil {
		if errors.Is(err, persistence.ErrStructural) {
			return fmt.Errorf("%w: %v", ErrStructural, err)
		}
		return err
	}
	s.markets.Replace(snap.Markets)
	s.users.Replace(snap.Users)
	return nil
}

// SaveTo snapshots the in-memory stores to a persistence backend. A failure
// here is reported as ErrDurability; the in-memory state (already mutated
// by whatever operation preceded this call) is never rolled back.
func (s *Service) SaveTo(backend persistence.Backend, trades []*models.Trade) error {
	err := backend.SaveAll(persistence.Snapshot{
		Markets: s.markets.List(),
		Users:   s.users.List(),
		Trades:  trades,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDurability, err)
	}
	return nil
}

// CreateMarket creates a new OPEN market named name (sanitized of any
// markup) with the given liquidity parameter b, priced at 50/50.
func (s *Service) CreateMarket(name, description string, b float64) (MarketView, error) {
	if name == "" {
		return MarketView{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if b <= 0 {
		return MarketView{}, fmt.Errorf("%w: liquidity must be > 0", ErrInvalidInput)
	}
	name, description = s.sanitizer.MarketText(name, description)

	if _, exists := s.marketByName(name); exists {
		return MarketView{}, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	m := models.NewMarket(uuid.NewString(), name, description, b)
	if err := s.markets.Create(m); err != nil {
		return MarketView{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return newMarketView(m), nil
}

// marketByName looks up a market by name, case-insensitively: market names
// must be unique regardless of case.
func (s *Service) marketByName(name string) (*models.Market, bool) {
	for _, m := range s.markets.List() {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return nil, false
}

// ListMarkets returns every known market, in no particular order. When
// statusFilter is non-nil, only markets with that status are returned.
func (s *Service) ListMarkets(statusFilter *models.MarketStatus) []MarketView {
	markets := s.markets.List()
	views := make([]MarketView, 0, len(markets))
	for _, m := range markets {
		if statusFilter != nil && m.Status != *statusFilter {
			continue
		}
		views = append(views, newMarketView(m))
	}
	return views
}

// GetMarket returns a single market by id.
func (s *Service) GetMarket(id string) (MarketView, error) {
	m, ok := s.markets.Get(id)
	if !ok {
		return MarketView{}, fmt.Errorf("%w: market %s", ErrNotFound, id)
	}
	return newMarketView(m), nil
}

// ResolveMarket settles marketID in favor of outcome, paying out every
// winning position. Calling it again on an already-resolved market always
// fails with ErrIllegalState, even with the same outcome.
func (s *Service) ResolveMarket(marketID string, outcome models.Outcome) error {
	if !outcome.Valid() {
		return fmt.Errorf("%w: outcome must be YES or NO", ErrInvalidInput)
	}
	err := s.settlement.Resolve(marketID, outcome)
	return translateEngineErr(err)
}

// CreateUser creates a new user credited with the Service's starting
// balance. Unlike CreateMarket, the caller supplies the id directly rather
// than receiving a generated one. The starting balance is never
// caller-supplied per call; it is a fixed, deployment-wide constant (see
// DefaultStartingBalance and NewWithStartingBalance).
func (s *Service) CreateUser(userID string) (UserView, error) {
	if userID == "" {
		return UserView{}, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}

	u := models.NewUser(userID, userID, s.startingBalance)
	if err := s.users.Create(u); err != nil {
		return UserView{}, fmt.Errorf("%w: %s", ErrDuplicateUser, userID)
	}
	return newUserView(u), nil
}

// ListUsers returns every known user, in no particular order.
func (s *Service) ListUsers() []UserView {
	users := s.users.List()
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	return views
}

// GetUserDetail returns the dedicated "me" projection: balance and every
// position, for a single user.
func (s *Service) GetUserDetail(userID string) (UserDetail, error) {
	u, ok := s.users.Get(userID)
	if !ok {
		return UserDetail{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return newUserDetail(u), nil
}

// Buy spends up to budget on shares of outcome in marketID for userID. The
// share count is solved by bisection, so the charged cost is the LMSR cost
// of those shares, capped at budget; it never exceeds budget and may fall
// slightly short of it.
func (s *Service) Buy(marketID, userID string, outcome models.Outcome, budget decimal.Decimal) (*models.Trade, error) {
	trade, err := s.trade.BuyForBudget(marketID, userID, outcome, budget)
	if err != nil {
		return nil, translateEngineErr(err)
	}
	return trade, nil
}

func translateEngineErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, engine.ErrMarketNotFound), errors.Is(err, engine.ErrUserNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, engine.ErrMarketNotOpen):
		return fmt.Errorf("%w: %v", ErrIllegalState, err)
	case errors.Is(err, models.ErrAlreadyResolved):
		return fmt.Errorf("%w: %v", ErrIllegalState, err)
	case errors.Is(err, engine.ErrInsufficientBalance):
		return fmt.Errorf("%w: %v", ErrInsufficientBalance, err)
	case errors.Is(err, engine.ErrAmountTooSmall):
		return fmt.Errorf("%w: %v", ErrAmountTooSmall, err)
	case errors.Is(err, engine.ErrInvalidOutcome):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return err
	}
}
