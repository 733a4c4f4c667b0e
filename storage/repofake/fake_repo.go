package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/telco-console/storage"
)

var _ storage.Repo = (*FakeRepo)(nil)

// FakeRepo is an in-memory storage.Repo. FailWrites makes Save and Delete
// fail, simulating a full or read-only disk.
type FakeRepo struct {
	values map[string]string
	writes int
	err    error
	lock   sync.RWMutex
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		values: make(map[string]string),
	}
}

// NewSeededFakeRepo returns a repo that already holds values, as if written by a previous process.
func NewSeededFakeRepo(values map[string]string) *FakeRepo {
	r := NewFakeRepo()
	for k, v := range values {
		r.values[k] = v
	}
	return r
}

func (r *FakeRepo) FailWrites(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.err = err
}

func (r *FakeRepo) Load(_ context.Context, keys ...string) (map[string]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := r.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (r *FakeRepo) Save(_ context.Context, values map[string]string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.err != nil {
		return r.err
	}
	r.writes++
	for k, v := range values {
		r.values[k] = v
	}
	return nil
}

func (r *FakeRepo) Delete(_ context.Context, keys ...string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.err != nil {
		return r.err
	}
	r.writes++
	for _, k := range keys {
		delete(r.values, k)
	}
	return nil
}

// Snapshot returns a copy of everything stored.
func (r *FakeRepo) Snapshot() map[string]string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Writes counts successful Save and Delete calls.
func (r *FakeRepo) Writes() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.writes
}
