package reflection

import "github.com/kangjianwei/LearningJDK-sub038/pkg/vm"

// accessCache records the last caller proven to have access. A nil cache
// is empty. A cache with a target is valid only for protected instance
// access through a receiver of exactly that type; without one it holds a
// single caller. Values are never mutated after publication.
type accessCache struct {
	caller *vm.Class
	target *vm.Class
}

func singleCaller(caller *vm.Class) *accessCache {
	return &accessCache{caller: caller}
}

func callerAndReceiver(caller, target *vm.Class) *accessCache {
	return &accessCache{caller: caller, target: target}
}

// needsReceiverCache reports whether access must be cached per receiver
// type. target is nil for static members.
func needsReceiverCache(declaring, target *vm.Class, mod uint16) bool {
	return target != nil && isProtected(mod) && target != declaring
}

// tryFast answers from the cache alone. A miss says nothing about access.
func (c *accessCache) tryFast(caller, declaring, target *vm.Class, mod uint16) bool {
	if caller == declaring {
		return true
	}
	if c == nil {
		return false
	}
	if needsReceiverCache(declaring, target, mod) {
		// receiver types diverge more often than callers
		return c.target == target && c.caller == caller
	}
	return c.target == nil && c.caller == caller
}
