package sqlite

import (
	"sync"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// Configuration holds the manager's installed discovery strategy.
type Configuration struct {
	mu     sync.RWMutex
	driver persistence.MappingDriver
}

var _ persistence.Configuration = (*Configuration)(nil)

// DiscoveryStrategy returns the installed mapping driver, possibly nil.
func (c *Configuration) DiscoveryStrategy() persistence.MappingDriver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.driver
}

// SetDiscoveryStrategy replaces the installed mapping driver.
func (c *Configuration) SetDiscoveryStrategy(driver persistence.MappingDriver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.driver = driver
}
