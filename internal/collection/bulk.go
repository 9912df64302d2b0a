package collection

import (
	"context"
	"fmt"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/tasks"
)

// ToggleSelection flips id in the selection.
func (m *Manager) ToggleSelection(id uint) bool {
	selected := m.state.ToggleSelected(id)
	m.logger.Debug("selection changed", "count", m.state.SelectedCount())
	return selected
}

// SelectAll selects every visible item.
func (m *Manager) SelectAll() int {
	n := m.state.SelectAll()
	m.logger.Debug("selection changed", "count", n)
	return n
}

// ClearSelection empties the selection.
func (m *Manager) ClearSelection() {
	m.state.ClearSelection()
	m.logger.Debug("selection changed", "count", 0)
}

// MarkSelectedWatched sets watched on every selected item concurrently.
func (m *Manager) MarkSelectedWatched(ctx context.Context) (*tasks.BulkResult, error) {
	ids := m.state.Selected()
	if len(ids) == 0 {
		m.notifier.Notify(notify.Info, "No items selected")
		return &tasks.BulkResult{Phase: tasks.MarkWatched}, nil
	}

	watched := true
	result := m.runner.Run(ctx, m.progress, tasks.MarkWatched, ids, func(ctx context.Context, id uint) error {
		_, err := m.api.UpdateItem(ctx, id, models.UpdateItemRequest{Watched: &watched})
		return err
	})

	return result, m.finishBulk(ctx, result,
		fmt.Sprintf("%d items marked as watched", len(ids)),
		"Error updating some items")
}

// DeleteSelected deletes every selected item concurrently once the user confirms.
//
// A declined confirmation returns a nil result and nil error.
func (m *Manager) DeleteSelected(ctx context.Context, confirmer notify.Confirmer) (*tasks.BulkResult, error) {
	ids := m.state.Selected()
	if len(ids) == 0 {
		m.notifier.Notify(notify.Info, "No items selected")
		return &tasks.BulkResult{Phase: tasks.DeleteItems}, nil
	}
	if confirmer != nil && !confirmer.Confirm(fmt.Sprintf("Delete %d selected items?", len(ids))) {
		return nil, nil
	}

	result := m.runner.Run(ctx, m.progress, tasks.DeleteItems, ids, m.api.DeleteItem)

	return result, m.finishBulk(ctx, result,
		fmt.Sprintf("%d items deleted", len(ids)),
		"Error deleting some items")
}

// finishBulk reports the aggregate outcome; on full success it clears the selection and reloads.
func (m *Manager) finishBulk(ctx context.Context, result *tasks.BulkResult, success, failure string) error {
	if !result.OK() {
		m.notifier.Notify(notify.Error, failure)
		return result.Err()
	}

	m.notifier.Notify(notify.Success, success)
	m.state.ClearSelection()
	return m.Reload(ctx)
}
