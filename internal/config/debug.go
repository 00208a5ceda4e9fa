package config

import "os"

func IsDebug() bool {
	return os.Getenv("FESTABOT_DEBUG") == "1"
}
