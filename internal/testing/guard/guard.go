package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CLUBHUB_TEST_MODE") == "" {
			_ = os.Setenv("CLUBHUB_TEST_MODE", "1")
		}
	})
}
