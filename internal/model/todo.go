package model

import "time"

// TodoStatus はタスクの進行状態を表す。
type TodoStatus string

const (
	// TodoStatusPending は未着手のタスクを示す。
	TodoStatusPending TodoStatus = "pending"
	// TodoStatusInProgress は作業中のタスクを示す。
	TodoStatusInProgress TodoStatus = "in-progress"
	// TodoStatusCompleted は完了したタスクを示す。
	TodoStatusCompleted TodoStatus = "completed"
)

// IsValid はTodoStatusが定義済みの値かどうかを返す。
func (s TodoStatus) IsValid() bool {
	switch s {
	case TodoStatusPending, TodoStatusInProgress, TodoStatusCompleted:
		return true
	}
	return false
}

// Todo はユーザーが管理するタスクを表す。
// 全ての操作はOwnerIDでスコープされ、他ユーザーのタスクにはアクセスできない。
type Todo struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Status      TodoStatus
	DueDate     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RevokedToken は自然失効前に無効化されたトークンのレコードを表す。
// ExpiresAtはトークン自体の失効時刻であり、レコードがこれより長く
// 生存することはない（Redisは TTL、PostgreSQLは掃除ジョブで保証する）。
type RevokedToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}
