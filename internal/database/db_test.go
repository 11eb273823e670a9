package database

import (
	"testing"
)

// sql.Openは接続を試行しないため、URLフォーマットに関わらずDBオブジェクトが返る。
// 実際の接続確認にはPingが必要。
func TestOpen_ReturnsDBForAnyURL(t *testing.T) {
	db, err := Open("postgres://invalid")
	if err != nil {
		t.Fatalf("Open returned unexpected error: %v", err)
	}
	if db == nil {
		t.Fatal("expected non-nil db")
	}
	defer db.Close()
}
