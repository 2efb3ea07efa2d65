// Package memory provides in-process implementations of the server
// repositories. All repositories created from one Store share its state and
// honor the same compare-and-swap semantics as the PostgreSQL versions.
package memory

import (
	"sync"

	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

// Store is the shared state behind the memory repositories.
type Store struct {
	mu sync.RWMutex

	keys       map[string]*models.KeyRecord
	activeKeys map[string]string

	files map[string]*models.EncryptedFile

	groups       map[string]*models.ShareGroup
	groupByToken map[string]string
	sharedFiles  map[string][]string
	sharedUsers  map[string][]string

	enrollments map[string]*models.TOTPEnrollment
	pending     map[string]*models.PendingOperation
}

func NewStore() *Store {
	return &Store{
		keys:         make(map[string]*models.KeyRecord),
		activeKeys:   make(map[string]string),
		files:        make(map[string]*models.EncryptedFile),
		groups:       make(map[string]*models.ShareGroup),
		groupByToken: make(map[string]string),
		sharedFiles:  make(map[string][]string),
		sharedUsers:  make(map[string][]string),
		enrollments:  make(map[string]*models.TOTPEnrollment),
		pending:      make(map[string]*models.PendingOperation),
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
