package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

var (
	instance evbus.Bus
	once     sync.Once
)

// Get 获取进程级事件总线实例
func Get() evbus.Bus {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New 创建新的同步事件总线
func New() evbus.Bus {
	return evbus.New()
}
