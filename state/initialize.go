package state

import (
	"time"

	"go.uber.org/zap"

	"hxc/images"
)

// newLocalEnv creates a new LocalEnv instance with default values. Logger is
// replaced as soon as configuration is loaded.
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		Log:   zap.NewNop(),
		start: time.Now(),
	}
}

// ImagePool returns download pool shared by all workbooks of the program,
// creating it on first call. Not safe for concurrent use.
func (e *LocalEnv) ImagePool() *images.Pool {
	if e.Pictures == nil {
		e.Pictures = images.NewPool(e.Cfg.Images.PoolSize())
	}
	return e.Pictures
}
