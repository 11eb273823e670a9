package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/todoman/internal/model"
)

// PostgresTodoRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTodoRepo struct {
	db *sql.DB
}

// NewPostgresTodoRepo はPostgresTodoRepoを生成する。
func NewPostgresTodoRepo(db *sql.DB) *PostgresTodoRepo {
	return &PostgresTodoRepo{db: db}
}

// Create はタスクを作成する。
func (r *PostgresTodoRepo) Create(ctx context.Context, todo *model.Todo) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (id, owner_id, title, description, status, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		todo.ID, todo.OwnerID, todo.Title, todo.Description, string(todo.Status),
		todo.DueDate, todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}
	return nil
}

// FindByIDAndOwner は指定IDかつ指定オーナーのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTodoRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Todo, error) {
	todo := &model.Todo{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, status, due_date, created_at, updated_at
		 FROM todos WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&todo.ID, &todo.OwnerID, &todo.Title, &todo.Description, &todo.Status,
		&todo.DueDate, &todo.CreatedAt, &todo.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}

	return todo, nil
}

// ListByOwner はオーナーのタスク一覧をcreated_at降順で返す。
// statusが空でない場合はステータスで絞り込む。
func (r *PostgresTodoRepo) ListByOwner(ctx context.Context, ownerID string, status model.TodoStatus, offset, limit int) ([]*model.Todo, error) {
	query := `SELECT id, owner_id, title, description, status, due_date, created_at, updated_at
	          FROM todos WHERE owner_id = $1`
	args := []interface{}{ownerID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	var todos []*model.Todo
	for rows.Next() {
		todo := &model.Todo{}
		if err := rows.Scan(&todo.ID, &todo.OwnerID, &todo.Title, &todo.Description,
			&todo.Status, &todo.DueDate, &todo.CreatedAt, &todo.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}

	return todos, nil
}

// CountByOwner はオーナーのタスク総数を返す。
func (r *PostgresTodoRepo) CountByOwner(ctx context.Context, ownerID string, status model.TodoStatus) (int, error) {
	query := `SELECT count(*) FROM todos WHERE owner_id = $1`
	args := []interface{}{ownerID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}

	return count, nil
}

// Update はタスクを更新する。
func (r *PostgresTodoRepo) Update(ctx context.Context, todo *model.Todo) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE todos SET title = $1, description = $2, status = $3, due_date = $4, updated_at = $5
		 WHERE id = $6 AND owner_id = $7`,
		todo.Title, todo.Description, string(todo.Status), todo.DueDate, todo.UpdatedAt,
		todo.ID, todo.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("todo not found: %s", todo.ID)
	}
	return nil
}

// DeleteByIDAndOwner は指定IDかつ指定オーナーのタスクを削除する。
func (r *PostgresTodoRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete todo: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ TodoRepository = (*PostgresTodoRepo)(nil)
