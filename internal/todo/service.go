// Package todo はタスク管理のドメインロジックを提供する。
package todo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
	"github.com/hitoshi/todoman/internal/security"
)

const (
	// maxTitleLength はタイトルの最大文字数。
	maxTitleLength = 100
	// maxDescriptionLength は説明文の最大文字数。
	maxDescriptionLength = 500

	// defaultPage は一覧取得のデフォルトページ番号。
	defaultPage = 1
	// defaultLimit は一覧取得のデフォルト件数。
	defaultLimit = 10
	// maxLimit は一覧取得の最大件数。
	maxLimit = 100
)

// CreateParams はタスク作成のパラメータ。
type CreateParams struct {
	Title       string
	Description string
	DueDate     time.Time
}

// UpdateParams はタスク更新のパラメータ。nilフィールドは変更しない。
type UpdateParams struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *model.TodoStatus
}

// ListResult はタスク一覧とページネーション情報。
type ListResult struct {
	Todos      []*model.Todo
	Total      int
	TotalPages int
	Page       int
	Limit      int
}

// Service はタスク管理のサービス層。
// 全操作はownerIDでスコープされ、他ユーザーのタスクには到達できない。
type Service struct {
	todos     repository.TodoRepository
	sanitizer security.TextSanitizerService
	now       func() time.Time
}

// NewService はServiceを生成する。
// nowがnilの場合はtime.Now（UTC）を使用する。
func NewService(todos repository.TodoRepository, sanitizer security.TextSanitizerService, now func() time.Time) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		todos:     todos,
		sanitizer: sanitizer,
		now:       now,
	}
}

// Create はタスクを作成する。
// タイトルと説明文はHTMLタグを除去した平文として保存する。
func (s *Service) Create(ctx context.Context, ownerID string, params CreateParams) (*model.Todo, error) {
	title := s.sanitizer.Sanitize(params.Title)
	description := s.sanitizer.Sanitize(params.Description)

	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if params.DueDate.IsZero() {
		return nil, model.NewValidationError("期限は必須です")
	}

	now := s.now()
	todo := &model.Todo{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Status:      model.TodoStatusPending,
		DueDate:     params.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	return todo, nil
}

// List はオーナーのタスク一覧をページネーション付きで返す。
// statusが空でない場合はステータスで絞り込む。
func (s *Service) List(ctx context.Context, ownerID string, status model.TodoStatus, page, limit int) (*ListResult, error) {
	if status != "" && !status.IsValid() {
		return nil, model.NewValidationError(fmt.Sprintf("無効なステータスです: %s", status))
	}
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	total, err := s.todos.CountByOwner(ctx, ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to count todos: %w", err)
	}

	offset := (page - 1) * limit
	todos, err := s.todos.ListByOwner(ctx, ownerID, status, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	totalPages := (total + limit - 1) / limit

	return &ListResult{
		Todos:      todos,
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		Limit:      limit,
	}, nil
}

// Get は指定IDのタスクを取得する。
// 他ユーザーのタスクはTODO_NOT_FOUNDとして扱う。
func (s *Service) Get(ctx context.Context, ownerID, todoID string) (*model.Todo, error) {
	todo, err := s.todos.FindByIDAndOwner(ctx, todoID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	if todo == nil {
		return nil, model.NewTodoNotFoundError(todoID)
	}
	return todo, nil
}

// Update はタスクを部分更新する。nilフィールドは変更しない。
func (s *Service) Update(ctx context.Context, ownerID, todoID string, params UpdateParams) (*model.Todo, error) {
	todo, err := s.Get(ctx, ownerID, todoID)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		title := s.sanitizer.Sanitize(*params.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		todo.Title = title
	}
	if params.Description != nil {
		description := s.sanitizer.Sanitize(*params.Description)
		if err := validateDescription(description); err != nil {
			return nil, err
		}
		todo.Description = description
	}
	if params.DueDate != nil {
		if params.DueDate.IsZero() {
			return nil, model.NewValidationError("期限は必須です")
		}
		todo.DueDate = *params.DueDate
	}
	if params.Status != nil {
		if !params.Status.IsValid() {
			return nil, model.NewValidationError(fmt.Sprintf("無効なステータスです: %s", *params.Status))
		}
		todo.Status = *params.Status
	}

	todo.UpdatedAt = s.now()

	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	return todo, nil
}

// Delete はタスクを削除する。
func (s *Service) Delete(ctx context.Context, ownerID, todoID string) error {
	deleted, err := s.todos.DeleteByIDAndOwner(ctx, todoID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if !deleted {
		return model.NewTodoNotFoundError(todoID)
	}
	return nil
}

// MarkCompleted はタスクを完了状態にする。
func (s *Service) MarkCompleted(ctx context.Context, ownerID, todoID string) (*model.Todo, error) {
	status := model.TodoStatusCompleted
	return s.Update(ctx, ownerID, todoID, UpdateParams{Status: &status})
}

// validateTitle はタイトルを検証する。
func validateTitle(title string) error {
	if title == "" {
		return model.NewValidationError("タイトルは必須です")
	}
	if len([]rune(title)) > maxTitleLength {
		return model.NewValidationError(fmt.Sprintf("タイトルは%d文字以内で指定してください", maxTitleLength))
	}
	return nil
}

// validateDescription は説明文を検証する。
func validateDescription(description string) error {
	if len([]rune(description)) > maxDescriptionLength {
		return model.NewValidationError(fmt.Sprintf("説明文は%d文字以内で指定してください", maxDescriptionLength))
	}
	return nil
}
