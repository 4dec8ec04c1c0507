package badger

import (
	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/config"
	"github.com/bobmcallan/calc-portal/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger.
type Manager struct {
	db     *BadgerDB
	curves interfaces.PerformanceCurveStorage
	logger *common.Logger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger *common.Logger, cfg *config.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		curves: NewCurveStorage(db, logger),
		logger: logger,
	}

	logger.Debug().Str("path", cfg.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// PerformanceCurveStorage returns the fan curve storage.
func (m *Manager) PerformanceCurveStorage() interfaces.PerformanceCurveStorage {
	return m.curves
}

// DB returns the underlying database connection.
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
