/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package handle

import (
	"time"

	queuepkg "github.com/Workiva/go-datastructures/queue"
)

// freeSlot is a retired table index waiting for reuse, together with the
// generation it was retired at. Reuse stamps generation+1 so stale handles
// referencing the old incarnation keep failing lookup.
type freeSlot struct {
	idx uint32
	gen uint32
}

// freeList holds fully retired slots. An index enters the list only after
// its resource has been destroyed and the mapping removed, which is what
// makes id reuse legal.
type freeList struct {
	q *queuepkg.Queue
}

func newFreeList(hint int64) *freeList {
	return &freeList{q: queuepkg.New(hint)}
}

func (l *freeList) put(s freeSlot) {
	_ = l.q.Put(s)
}

// pop returns a recycled slot, or ok=false when the list is empty. Poll with
// a tiny timeout keeps allocation non-blocking when another allocator races
// us to the last slot.
func (l *freeList) pop() (freeSlot, bool) {
	if l.q.Len() == 0 {
		return freeSlot{}, false
	}
	items, err := l.q.Poll(1, time.Millisecond)
	if err != nil || len(items) == 0 {
		return freeSlot{}, false
	}
	s, ok := items[0].(freeSlot)
	if !ok {
		return freeSlot{}, false
	}
	return s, true
}
