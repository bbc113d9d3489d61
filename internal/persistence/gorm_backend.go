package persistence

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"marketcore/internal/models"
)

// marketRow, userRow, positionRow, and tradeRow are the relational shapes
// of the three persisted collections. They exist separately from
// models.Market/User/Trade so the domain types stay free of ORM tags and
// lifecycle fields (CreatedAt/UpdatedAt/DeletedAt) the domain itself does
// not need.
type marketRow struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Description string
	B           float64
	QYes        float64
	QNo         float64
	Status      string
	Resolved    *string
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

func (marketRow) TableName() string { return "markets" }

type userRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Balance   string // decimal stored as its exact string form
	CreatedAt time.Time
}

func (userRow) TableName() string { return "users" }

type positionRow struct {
	gorm.Model
	UserID    string `gorm:"index"`
	MarketID  string `gorm:"index"`
	YesShares float64
	NoShares  float64
	Settled   bool
}

func (positionRow) TableName() string { return "positions" }

type tradeRow struct {
	ID        string `gorm:"primaryKey"`
	MarketID  string `gorm:"index"`
	UserID    string `gorm:"index"`
	Outcome   string
	Shares    float64
	Cost      string
	CreatedAt time.Time
}

func (tradeRow) TableName() string { return "trades" }

// GormBackend persists markets, users, positions, and trades as relational
// tables via gorm. sqlite (glebarez, CGO-free) is the default dialect for
// local/dev use; postgres is available for production deployments via a
// DSN.
type GormBackend struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// NewSQLiteBackend opens a glebarez/sqlite-backed GormBackend at path (a
// plain filesystem path, e.g. "./data/marketcore.db") and runs AutoMigrate.
// This is the default relational dialect: pure Go, no cgo.
func NewSQLiteBackend(path string, log *zap.Logger) (*GormBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("persistence: opening sqlite: %w", err)
	}
	if err := db.AutoMigrate(&marketRow{}, &userRow{}, &positionRow{}, &tradeRow{}); err != nil {
		return nil, fmt.Errorf("persistence: migrating schema: %w", err)
	}
	return &GormBackend{DB: db, Log: log}, nil
}

// NewPostgresBackend opens a postgres-backed GormBackend at dsn and runs
// AutoMigrate for the four tables above.
func NewPostgresBackend(dsn string, log *zap.Logger) (*GormBackend, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("persistence: opening postgres: %w", err)
	}
	if err := db.AutoMigrate(&marketRow{}, &userRow{}, &positionRow{}, &tradeRow{}); err != nil {
		return nil, fmt.Errorf("persistence: migrating schema: %w", err)
	}
	return &GormBackend{DB: db, Log: log}, nil
}

func (b *GormBackend) LoadAll() (Snapshot, error) {
	var marketRows []marketRow
	var userRows []userRow
	var positionRows []positionRow
	var tradeRows []tradeRow

	if err := b.DB.Find(&marketRows).Error; err != nil {
		return Snapshot{}, fmt.Errorf("persistence: loading markets: %w", err)
	}
	if err := b.DB.Find(&userRows).Error; err != nil {
		return Snapshot{}, fmt.Errorf("persistence: loading users: %w", err)
	}
	if err := b.DB.Find(&positionRows).Error; err != nil {
		return Snapshot{}, fmt.Errorf("persistence: loading positions: %w", err)
	}
	if err := b.DB.Find(&tradeRows).Error; err != nil {
		return Snapshot{}, fmt.Errorf("persistence: loading trades: %w", err)
	}

	snap := Snapshot{
		Markets: make([]*models.Market, 0, len(marketRows)),
		Users:   make([]*models.User, 0, len(userRows)),
		Trades:  make([]*models.Trade, 0, len(tradeRows)),
	}

	for _, row := range marketRows {
		m := models.NewMarket(row.ID, row.Name, row.Description, row.B)
		m.ApplyTrade(models.Yes, row.QYes)
		m.ApplyTrade(models.No, row.QNo)
		m.Status = models.MarketStatus(row.Status)
		if row.Resolved != nil {
			o := models.Outcome(*row.Resolved)
			m.Resolved = &o
		}
		m.ResolvedAt = row.ResolvedAt
		snap.Markets = append(snap.Markets, m)
	}

	usersByID := make(map[string]*models.User, len(userRows))
	for _, row := range userRows {
		balance, err := decimal.NewFromString(row.Balance)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: user %s balance %q: %v", ErrStructural, row.ID, row.Balance, err)
		}
		u := models.NewUser(row.ID, row.Name, balance)
		usersByID[u.ID] = u
		snap.Users = append(snap.Users, u)
	}
	for _, row := range positionRows {
		u, ok := usersByID[row.UserID]
		if !ok {
			continue // a position whose user is unknown is skipped here, without a warning
		}
		if row.YesShares > 0 {
			u.AddShares(row.MarketID, models.Yes, row.YesShares)
		}
		if row.NoShares > 0 {
			u.AddShares(row.MarketID, models.No, row.NoShares)
		}
		pos := u.PositionFor(row.MarketID)
		if pos == nil {
			pos = &models.Position{MarketID: row.MarketID}
			u.Positions[row.MarketID] = pos
		}
		pos.Settled = row.Settled
	}

	for _, row := range tradeRows {
		cost, err := decimal.NewFromString(row.Cost)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: trade %s cost %q: %v", ErrStructural, row.ID, row.Cost, err)
		}
		snap.Trades = append(snap.Trades, &models.Trade{
			ID:        row.ID,
			MarketID:  row.MarketID,
			UserID:    row.UserID,
			Outcome:   models.Outcome(row.Outcome),
			Shares:    row.Shares,
			Cost:      cost,
			CreatedAt: row.CreatedAt,
		})
	}

	if err := checkStructural(snap); err != nil {
		return Snapshot{}, err
	}
	return dropDanglingReferences(snap, b.Log), nil
}

// SaveAll replaces the contents of all four tables inside a single
// transaction. A failure at any point rolls the transaction back and is
// reported as ErrDurability.
func (b *GormBackend) SaveAll(snap Snapshot) error {
	err := b.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&positionRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&tradeRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&userRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&marketRow{}).Error; err != nil {
			return err
		}

		for _, m := range snap.Markets {
			qYes, qNo := m.Shares()
			row := marketRow{
				ID: m.ID, Name: m.Name, Description: m.Description, B: m.B,
				QYes: qYes, QNo: qNo, Status: string(m.Status),
				CreatedAt: m.CreatedAt, ResolvedAt: m.ResolvedAt,
			}
			if m.Resolved != nil {
				s := string(*m.Resolved)
				row.Resolved = &s
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for _, u := range snap.Users {
			if err := tx.Create(&userRow{ID: u.ID, Name: u.Name, Balance: u.Balance.String()}).Error; err != nil {
				return err
			}
			for _, p := range u.Positions {
				row := positionRow{
					UserID: u.ID, MarketID: p.MarketID,
					YesShares: p.YesShares, NoShares: p.NoShares, Settled: p.Settled,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}

		for _, tr := range snap.Trades {
			row := tradeRow{
				ID: tr.ID, MarketID: tr.MarketID, UserID: tr.UserID,
				Outcome: string(tr.Outcome), Shares: tr.Shares,
				Cost: tr.Cost.String(), CreatedAt: tr.CreatedAt,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDurability, err)
	}
	return nil
}
