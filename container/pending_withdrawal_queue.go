package container

import (
	"fmt"
	"sort"
	"sync"

	"github.com/polystream/vault/types"
)

type queueKey struct {
	payoutTime int64
	id         uint64
}

func (k queueKey) less(other queueKey) bool {
	if k.payoutTime != other.payoutTime {
		return k.payoutTime < other.payoutTime
	}
	return k.id < other.id
}

// PendingWithdrawalQueue is a time-ordered queue of pending withdrawals.
// Entries are keyed by (payoutTime, id) with a monotonically increasing
// sequence, so same-time entries retain submission order.
type PendingWithdrawalQueue struct {
	mu      sync.Mutex
	seq     uint64
	keys    []queueKey
	entries map[queueKey]types.PendingWithdrawal
}

// NewPendingWithdrawalQueue creates an empty queue.
func NewPendingWithdrawalQueue() *PendingWithdrawalQueue {
	return &PendingWithdrawalQueue{entries: map[queueKey]types.PendingWithdrawal{}}
}

// Enqueue adds a pending withdrawal due at payoutTime and returns its id.
func (q *PendingWithdrawalQueue) Enqueue(payoutTime int64, req types.PendingWithdrawal) (uint64, error) {
	if req.VaultID == "" || req.Owner == "" {
		return 0, fmt.Errorf("pending withdrawal must name a vault and an owner")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	key := queueKey{payoutTime: payoutTime, id: q.seq}
	idx := sort.Search(len(q.keys), func(i int) bool { return key.less(q.keys[i]) })
	q.keys = append(q.keys, queueKey{})
	copy(q.keys[idx+1:], q.keys[idx:])
	q.keys[idx] = key
	q.entries[key] = req
	return q.seq, nil
}

// Dequeue removes a pending withdrawal from the queue.
func (q *PendingWithdrawalQueue) Dequeue(payoutTime int64, id uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := queueKey{payoutTime: payoutTime, id: id}
	if _, ok := q.entries[key]; !ok {
		return fmt.Errorf("no pending withdrawal at time %d with id %d", payoutTime, id)
	}
	delete(q.entries, key)
	idx := sort.Search(len(q.keys), func(i int) bool { return !q.keys[i].less(key) })
	if idx < len(q.keys) && q.keys[idx] == key {
		q.keys = append(q.keys[:idx], q.keys[idx+1:]...)
	}
	return nil
}

// WalkDue iterates over all entries with payoutTime <= now in key order. For
// each due entry the callback is invoked. Iteration stops when a later key is
// reached (keys are ordered), or when the callback returns stop=true or an
// error. The callback must not mutate the queue.
func (q *PendingWithdrawalQueue) WalkDue(now int64, fn func(payoutTime int64, id uint64, req types.PendingWithdrawal) (stop bool, err error)) error {
	q.mu.Lock()
	keys := make([]queueKey, len(q.keys))
	copy(keys, q.keys)
	snapshot := make(map[queueKey]types.PendingWithdrawal, len(q.entries))
	for k, v := range q.entries {
		snapshot[k] = v
	}
	q.mu.Unlock()

	for _, key := range keys {
		if key.payoutTime > now {
			return nil
		}
		stop, err := fn(key.payoutTime, key.id, snapshot[key])
		if err != nil || stop {
			return err
		}
	}
	return nil
}

// Len returns the number of queued withdrawals.
func (q *PendingWithdrawalQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys)
}
