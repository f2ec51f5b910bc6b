package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scholia/internal/common"
	"github.com/ternarybob/scholia/internal/interfaces"
)

const gcInterval = time.Hour

// Manager owns the Badger connection and the typed stores built on it
type Manager struct {
	db        *BadgerDB
	documents interfaces.DocumentStorage
	logger    arbor.ILogger
	stopGC    chan struct{}
}

// NewManager opens the database and constructs the stores
func NewManager(config *common.BadgerConfig, logger arbor.ILogger) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize badger: %w", err)
	}

	m := &Manager{
		db:        db,
		documents: NewDocumentStorage(db, logger),
		logger:    logger,
		stopGC:    make(chan struct{}),
	}

	if !config.InMemory {
		go m.gcLoop()
	}

	return m, nil
}

// DocumentStorage returns the document store
func (m *Manager) DocumentStorage() interfaces.DocumentStorage {
	return m.documents
}

func (m *Manager) gcLoop() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.db.RunValueLogGC(); err != nil {
				m.logger.Warn().Err(err).Msg("Badger value log GC failed")
			}
		case <-m.stopGC:
			return
		}
	}
}

// Close stops background maintenance and closes the underlying database
func (m *Manager) Close() error {
	close(m.stopGC)
	return m.db.Close()
}
