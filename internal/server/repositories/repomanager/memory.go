package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vaultshare/internal/dbx"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/files"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/keys"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/memory"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/shares"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/stepup"
)

// MemoryRepositoryManager vends repositories over one shared memory.Store.
// The DBTX argument is ignored; pair it with dbx.LocalRunner.
type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore()}
}

// RunMigrations is a no-op: memory state needs no schema.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Keys(dbx.DBTX) keys.Repository {
	return memory.NewKeyRepository(m.store)
}

func (m *MemoryRepositoryManager) Files(dbx.DBTX) files.Repository {
	return memory.NewFileRepository(m.store)
}

func (m *MemoryRepositoryManager) Shares(dbx.DBTX) shares.Repository {
	return memory.NewShareRepository(m.store)
}

func (m *MemoryRepositoryManager) StepUp(dbx.DBTX) stepup.Repository {
	return memory.NewStepUpRepository(m.store)
}
