package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/todo"
)

// TodoServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TodoServiceInterface interface {
	// Create はタスクを作成する。
	Create(ctx context.Context, ownerID string, params todo.CreateParams) (*model.Todo, error)
	// List はタスク一覧をフィルタ・ページネーション付きで返す。
	List(ctx context.Context, ownerID string, status model.TodoStatus, page, limit int) (*todo.ListResult, error)
	// Get はタスク詳細を返す。
	Get(ctx context.Context, ownerID, todoID string) (*model.Todo, error)
	// Update はタスクを部分更新する。
	Update(ctx context.Context, ownerID, todoID string, params todo.UpdateParams) (*model.Todo, error)
	// Delete はタスクを削除する。
	Delete(ctx context.Context, ownerID, todoID string) error
	// MarkCompleted はタスクを完了状態にする。
	MarkCompleted(ctx context.Context, ownerID, todoID string) (*model.Todo, error)
}

// TodoHandler はタスク管理のHTTPハンドラー。
type TodoHandler struct {
	service TodoServiceInterface
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(service TodoServiceInterface) *TodoHandler {
	return &TodoHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// createTodoRequest はタスク作成リクエストのボディ。
type createTodoRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
}

// updateTodoRequest はタスク更新リクエストのボディ。nilフィールドは変更しない。
type updateTodoRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

// todoResponse はタスク情報のAPIレスポンス。
type todoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	DueDate     time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// paginationResponse はページネーション情報のレスポンス。
type paginationResponse struct {
	Total       int `json:"total"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	Limit       int `json:"limit"`
}

// todoListResponse はタスク一覧のレスポンス。
type todoListResponse struct {
	Todos      []todoResponse     `json:"todos"`
	Pagination paginationResponse `json:"pagination"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreateTodo はタスク作成を処理する。
// POST /api/todos
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, todo.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTodoResponse(created))
}

// ListTodos はタスク一覧を取得する。
// GET /api/todos?status=pending&page=1&limit=10
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	status := model.TodoStatus(r.URL.Query().Get("status"))
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	result, err := h.service.List(r.Context(), userID, status, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	todos := make([]todoResponse, 0, len(result.Todos))
	for _, t := range result.Todos {
		todos = append(todos, toTodoResponse(t))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(todoListResponse{
		Todos: todos,
		Pagination: paginationResponse{
			Total:       result.Total,
			TotalPages:  result.TotalPages,
			CurrentPage: result.Page,
			Limit:       result.Limit,
		},
	})
}

// GetTodo はタスク詳細を取得する。
// GET /api/todos/:id
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	todoID := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), userID, todoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTodoResponse(found))
}

// UpdateTodo はタスク更新を処理する。
// PUT /api/todos/:id
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	todoID := chi.URLParam(r, "id")

	var req updateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	params := todo.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Status != nil {
		status := model.TodoStatus(*req.Status)
		params.Status = &status
	}

	updated, err := h.service.Update(r.Context(), userID, todoID, params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTodoResponse(updated))
}

// DeleteTodo はタスク削除を処理する。
// DELETE /api/todos/:id
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	todoID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, todoID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messageResponse{Message: "タスクを削除しました。"})
}

// MarkCompleted はタスクの完了を処理する。
// PATCH /api/todos/:id/complete
func (h *TodoHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	todoID := chi.URLParam(r, "id")

	updated, err := h.service.MarkCompleted(r.Context(), userID, todoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTodoResponse(updated))
}

// --- ヘルパー関数 ---

// toTodoResponse はmodel.TodoからAPIレスポンスに変換する。
func toTodoResponse(t *model.Todo) todoResponse {
	return todoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// queryInt はクエリパラメータを整数として取得する。不正な値はデフォルト値を返す。
func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeDuplicateUser:
		return http.StatusBadRequest
	case model.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeTodoNotFound:
		return http.StatusNotFound
	case model.ErrCodeLogoutFailed:
		return http.StatusInternalServerError
	case model.ErrCodeTokenConfig:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
