package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーとして起動する。デフォルトのモード。
	CommandServe Command = "serve"
	// CommandWorker は失効トークンの掃除ジョブを定期実行するワーカーとして起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中のサーバーの/healthを叩いて終了コードで結果を返す。
	// シェルを持たないコンテナイメージのヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// commands はサブコマンド文字列からCommandへの対応表。
var commands = map[string]Command{
	"serve":       CommandServe,
	"worker":      CommandWorker,
	"migrate":     CommandMigrate,
	"healthcheck": CommandHealthcheck,
}

// ParseCommand は先頭のコマンドライン引数をサブコマンドとして解釈する。
// 引数がない場合と未知のコマンドはCommandServeにフォールバックする。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
