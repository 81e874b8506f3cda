package service

import (
	"tg-bounceguard/internal/config"
	"tg-bounceguard/internal/logger"
	"tg-bounceguard/internal/models"
	"tg-bounceguard/internal/storage"
)

var (
	groupInfoManager  = models.NewGroupInfoManager()
	groupRepository   *storage.GroupRepository
	counterRepository *storage.CounterRepository
	tempbanRepository *storage.TempbanRepository
	actionRepository  *storage.ActionRepository
	globalConfig      *config.Config
)

// Initialize initializes the service with configuration
func Initialize(cfg *config.Config) {
	globalConfig = cfg
}

// InitRepositories initializes the repositories if database is enabled
func InitRepositories() {
	if storage.DB == nil {
		logger.Infof("Database disabled, using in-memory ledgers")
		return
	}

	groupRepository = storage.NewGroupRepository(storage.DB)
	if err := groupRepository.MigrateTable(); err != nil {
		logger.Warningf("Error migrating GroupInfo table: %v", err)
	}
	// Load existing groups from the database
	if err := storage.InitializeGroups(groupInfoManager); err != nil {
		logger.Warningf("Error loading groups from database: %v", err)
	}

	counterRepository = storage.NewCounterRepository(storage.DB)
	if err := counterRepository.MigrateTable(); err != nil {
		logger.Warningf("Error migrating BounceCounter table: %v", err)
	}

	tempbanRepository = storage.NewTempbanRepository(storage.DB)
	if err := tempbanRepository.MigrateTable(); err != nil {
		logger.Warningf("Error migrating TempbanRecord table: %v", err)
	}

	actionRepository = storage.NewActionRepository(storage.DB)
	if err := actionRepository.MigrateTable(); err != nil {
		logger.Warningf("Error migrating PendingAction table: %v", err)
	}
}
