package app

import (
	"fmt"
	"strconv"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は目標判定ワーカーとして起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "worker":
		return CommandWorker
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// MigrateOptions はmigrateサブコマンドのオプション。
type MigrateOptions struct {
	// Down がtrueの場合はStepsだけロールバックする。
	Down  bool
	Steps int
}

// ParseMigrateOptions はmigrate以降の引数を解析する。
//
//	migrate            全て適用
//	migrate up         全て適用
//	migrate down       直近1件を取り消す
//	migrate down N     直近N件を取り消す
func ParseMigrateOptions(args []string) (MigrateOptions, error) {
	if len(args) > 0 && args[0] == string(CommandMigrate) {
		args = args[1:]
	}
	if len(args) == 0 {
		return MigrateOptions{}, nil
	}

	switch args[0] {
	case "up":
		if len(args) > 1 {
			return MigrateOptions{}, fmt.Errorf("migrate up takes no arguments: %v", args[1:])
		}
		return MigrateOptions{}, nil
	case "down":
		opts := MigrateOptions{Down: true, Steps: 1}
		if len(args) > 2 {
			return MigrateOptions{}, fmt.Errorf("too many arguments for migrate down: %v", args[1:])
		}
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return MigrateOptions{}, fmt.Errorf("invalid step count: %q", args[1])
			}
			opts.Steps = n
		}
		return opts, nil
	default:
		return MigrateOptions{}, fmt.Errorf("unknown migrate direction: %q", args[0])
	}
}
