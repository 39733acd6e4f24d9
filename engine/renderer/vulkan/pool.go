package vulkan

import "sync"

type LockGroup string

const (
	BufferManagement    LockGroup = "buffer_management"
	SwapchainManagement LockGroup = "swapchain_management"
)

// VulkanLockPool serializes access to externally synchronized Vulkan
// objects: queues per family, and groups of other objects.
type VulkanLockPool struct {
	mu           sync.Mutex
	locks        map[LockGroup]*sync.Mutex
	queueMutexes map[uint32]*sync.Mutex
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{
		locks:        make(map[LockGroup]*sync.Mutex),
		queueMutexes: make(map[uint32]*sync.Mutex),
	}
}

func (vs *VulkanLockPool) lock(group LockGroup) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	l, ok := vs.locks[group]
	if !ok {
		l = &sync.Mutex{}
		vs.locks[group] = l
	}
	return l
}

func (vs *VulkanLockPool) queueLock(index uint32) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	l, ok := vs.queueMutexes[index]
	if !ok {
		l = &sync.Mutex{}
		vs.queueMutexes[index] = l
	}
	return l
}

// SafeCall runs fn while holding the group lock.
func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := vs.lock(group)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// SafeQueueCall runs fn while holding the lock of the queue family.
func (vs *VulkanLockPool) SafeQueueCall(queueFamilyIndex uint32, fn func() error) error {
	l := vs.queueLock(queueFamilyIndex)
	l.Lock()
	defer l.Unlock()
	return fn()
}
