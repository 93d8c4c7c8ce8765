package policy

import "container/list"

// keySet is a bounded set that evicts the least recently added key.
type keySet struct {
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

func newKeySet(capacity int) *keySet {
	if capacity < 1 {
		capacity = 1
	}
	return &keySet{capacity: capacity, order: list.New(), items: make(map[string]*list.Element)}
}

func (k *keySet) Contains(key string) bool {
	_, ok := k.items[key]
	return ok
}

func (k *keySet) Add(key string) {
	if el, ok := k.items[key]; ok {
		k.order.MoveToFront(el)
		return
	}
	k.items[key] = k.order.PushFront(key)
	for k.order.Len() > k.capacity {
		oldest := k.order.Back()
		k.order.Remove(oldest)
		delete(k.items, oldest.Value.(string))
	}
}

func (k *keySet) Len() int { return k.order.Len() }

func (k *keySet) Reset() {
	k.order.Init()
	clear(k.items)
}
