// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/todoman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスの一意性違反の場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// TodoRepository はタスクデータの永続化インターフェース。
// 全てのメソッドはownerIDでスコープされる。
type TodoRepository interface {
	// Create はタスクを作成する。
	Create(ctx context.Context, todo *model.Todo) error

	// FindByIDAndOwner は指定IDかつ指定オーナーのタスクを取得する。
	// 見つからない場合はnilを返す。
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Todo, error)

	// ListByOwner はオーナーのタスク一覧をcreated_at降順で返す。
	// statusが空でない場合はステータスで絞り込む。
	// offsetとlimitでページネーションする。
	ListByOwner(ctx context.Context, ownerID string, status model.TodoStatus, offset, limit int) ([]*model.Todo, error)

	// CountByOwner はオーナーのタスク総数を返す。
	// statusが空でない場合はステータスで絞り込む。
	CountByOwner(ctx context.Context, ownerID string, status model.TodoStatus) (int, error)

	// Update はタスクを更新する。
	Update(ctx context.Context, todo *model.Todo) error

	// DeleteByIDAndOwner は指定IDかつ指定オーナーのタスクを削除する。
	// 削除対象が存在したかどうかを返す。
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error)
}

// RevokedTokenRepository は失効トークンレコードの永続化インターフェース。
// 失効台帳のPostgreSQLフォールバックとして使用する。
type RevokedTokenRepository interface {
	// Create は失効トークンレコードを作成する。既存トークンの再失効は冪等に成功する。
	Create(ctx context.Context, token, userID string, expiresAt time.Time) error

	// Exists は未失効期限のレコードが存在するかを返す。
	// expires_atを過ぎたレコードは掃除ジョブの実行前でも存在しないものとして扱う。
	Exists(ctx context.Context, token string) (bool, error)

	// DeleteExpired はexpires_atを過ぎたレコードを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
