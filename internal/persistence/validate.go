package persistence

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"marketcore/internal/models"
)

var structValidator = validator.New()

// checkStructural runs field-level struct validation over every loaded
// record and fails fast (StructuralError) on the first violation. No
// repair is attempted.
func checkStructural(snap Snapshot) error {
	for _, m := range snap.Markets {
		if err := structValidator.Struct(m); err != nil {
			return fmt.Errorf("%w: market %s: %v", ErrStructural, m.ID, err)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrStructural, err)
		}
	}
	for _, u := range snap.Users {
		if err := structValidator.Struct(u); err != nil {
			return fmt.Errorf("%w: user %s: %v", ErrStructural, u.ID, err)
		}
		for _, p := range u.Positions {
			if err := structValidator.Struct(p); err != nil {
				return fmt.Errorf("%w: user %s position %s: %v", ErrStructural, u.ID, p.MarketID, err)
			}
		}
	}
	for _, tr := range snap.Trades {
		if err := structValidator.Struct(tr); err != nil {
			return fmt.Errorf("%w: trade %s: %v", ErrStructural, tr.ID, err)
		}
	}
	return nil
}

// dropDanglingReferences removes any Position or Trade that refers to a
// market or user id not present in the snapshot, logging a warning for
// each one dropped, rather than failing the whole load. A market or user
// itself is never dropped; only the records that point at missing ones.
func dropDanglingReferences(snap Snapshot, log *zap.Logger) Snapshot {
	marketIDs := make(map[string]struct{}, len(snap.Markets))
	for _, m := range snap.Markets {
		marketIDs[m.ID] = struct{}{}
	}
	userIDs := make(map[string]struct{}, len(snap.Users))
	for _, u := range snap.Users {
		userIDs[u.ID] = struct{}{}
	}

	for _, u := range snap.Users {
		for key, p := range u.Positions {
			if _, ok := marketIDs[p.MarketID]; !ok {
				if log != nil {
					log.Warn("dropping position referencing unknown market",
						zap.String("user", u.ID), zap.String("market", p.MarketID))
				}
				delete(u.Positions, key)
			}
		}
	}

	keptTrades := make([]*models.Trade, 0, len(snap.Trades))
	for _, tr := range snap.Trades {
		_, marketOK := marketIDs[tr.MarketID]
		_, userOK := userIDs[tr.UserID]
		if !marketOK || !userOK {
			if log != nil {
				log.Warn("dropping trade referencing unknown market or user",
					zap.String("trade", tr.ID), zap.String("market", tr.MarketID), zap.String("user", tr.UserID))
			}
			continue
		}
		keptTrades = append(keptTrades, tr)
	}
	snap.Trades = keptTrades
	return snap
}
