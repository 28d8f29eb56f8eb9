package postgres

import (
	"github.com/fastygo/todo/repository"
)

const selectColumns = `id, title, description, is_completed, created_at, updated_at, completed_at`

const (
	listAllQuery = `
	SELECT ` + selectColumns + `
	FROM todo_items
	ORDER BY created_at DESC, id DESC
	`
	listCompletedQuery = `
	SELECT ` + selectColumns + `
	FROM todo_items
	WHERE is_completed
	ORDER BY completed_at DESC NULLS LAST, id DESC
	`
	listPendingQuery = `
	SELECT ` + selectColumns + `
	FROM todo_items
	WHERE NOT is_completed
	ORDER BY created_at DESC, id DESC
	`
)

func listQuery(filter repository.TodoFilter) string {
	switch filter.Status {
	case repository.StatusCompleted:
		return listCompletedQuery
	case repository.StatusPending:
		return listPendingQuery
	default:
		return listAllQuery
	}
}
