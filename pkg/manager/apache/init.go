package apache

import "github.com/loonghao/vx/pkg/manager"

func init() {
	// Register Apache archives manager
	manager.Register(NewApacheManager())
}