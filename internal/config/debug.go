package config

import "os"

func IsDebug() bool {
	return os.Getenv("LENSBOT_DEBUG") == "1"
}
