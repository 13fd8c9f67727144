package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultDotEnvPath はローカル開発用の環境変数ファイル。
const DefaultDotEnvPath = ".env"

// LoadDotEnv はpathの環境変数ファイルを読み込み、未設定の変数だけをプロセス環境に反映する。
// ファイルが存在しない場合は何もしない。
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
