package app

import (
	"sync"

	"github.com/desertthunder/ldx/internal/models"
)

// Modal identifies the open dialog.
type Modal int

const (
	ModalNone Modal = iota
	ModalScan
	ModalAdd
	ModalEdit
	ModalRandom
)

func (m Modal) String() string {
	switch m {
	case ModalScan:
		return "scan"
	case ModalAdd:
		return "add"
	case ModalEdit:
		return "edit"
	case ModalRandom:
		return "random"
	default:
		return "none"
	}
}

// Modals tracks the single open dialog. Opening one closes the others.
type Modals struct {
	mu      sync.Mutex
	open    Modal
	random  *models.CatalogItem
	onClose func(Modal)
}

// NewModals creates the modal state. onClose runs, outside the lock, whenever a modal closes.
func NewModals(onClose func(Modal)) *Modals {
	return &Modals{onClose: onClose}
}

// Current returns the open modal.
func (m *Modals) Current() Modal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Random returns the pick shown in the random modal.
func (m *Modals) Random() (models.CatalogItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open != ModalRandom || m.random == nil {
		return models.CatalogItem{}, false
	}
	return *m.random, true
}

// Open closes any open modal and opens modal.
func (m *Modals) Open(modal Modal) {
	m.swap(modal, nil)
}

// OpenRandom opens the random modal showing item.
func (m *Modals) OpenRandom(item models.CatalogItem) {
	m.swap(ModalRandom, &item)
}

// Close closes every modal.
func (m *Modals) Close() {
	m.swap(ModalNone, nil)
}

func (m *Modals) swap(modal Modal, random *models.CatalogItem) {
	m.mu.Lock()
	prev := m.open
	m.open = modal
	m.random = random
	m.mu.Unlock()

	if prev != ModalNone && m.onClose != nil {
		m.onClose(prev)
	}
}
