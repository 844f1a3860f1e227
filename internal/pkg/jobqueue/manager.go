package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/posterdeck/posterdeck/internal/pkg/ledger"
	"gorm.io/gorm"
)

// AutoReleaseInterval is how often the escrow sweep runs.
const AutoReleaseInterval = 24 * time.Hour

// Manager manages the global job queue and background tasks
type Manager struct {
	queue             *Queue
	releaseProcessor  *ReleaseProcessor
	autoReleaseTicker *time.Ticker
	stopCh            chan struct{}
	wg                sync.WaitGroup
	mu                sync.Mutex
	running           bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			queue:  NewQueue(3),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// AttachReleaseProcessor wires the escrow sweep into the manager. Must
// be called before Start.
func (m *Manager) AttachReleaseProcessor(db *gorm.DB, ledgerSvc *ledger.Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseProcessor = NewReleaseProcessor(db, ledgerSvc, m.queue)
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	if m.releaseProcessor != nil {
		m.autoReleaseTicker = time.NewTicker(AutoReleaseInterval)
		m.wg.Add(1)
		go m.autoReleaseWorker()
	}

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.autoReleaseTicker != nil {
		m.autoReleaseTicker.Stop()
	}

	close(m.stopCh)
	m.running = false
	m.wg.Wait()

	m.queue.Stop()
	log.Info("[JobQueue Manager] Stopped")
}

func (m *Manager) autoReleaseWorker() {
	defer m.wg.Done()

	for {
		select {
		case <-m.stopCh:
			return
		case <-m.autoReleaseTicker.C:
			m.releaseProcessor.Run(context.Background())
		}
	}
}
