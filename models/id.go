package models

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"golang.org/x/exp/constraints"
)

const (
	ErrTypeOutOfIDs     = "out_of_ids"
	ErrTypeIDOutOfRange = "id_out_of_range"
)

// IDPool hands out ids from 1 to a max id. Fresh ids are used first, given
// back ids are reused in the order they were returned once fresh ids run out.
type IDPool[T constraints.Unsigned] struct {
	mutex     sync.Mutex
	nextID    T
	maxID     T
	exhausted bool
	reusable  []T
}

func NewIDPool[T constraints.Unsigned](maxID T) *IDPool[T] {
	return &IDPool[T]{
		nextID:    1,
		maxID:     maxID,
		exhausted: maxID == 0,
	}
}

func (p *IDPool[T]) MaxID() T {
	return p.maxID
}

// New returns an unused id.
func (p *IDPool[T]) New() (T, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.exhausted {
		id := p.nextID
		if id == p.maxID {
			p.exhausted = true
		} else {
			p.nextID++
		}
		return id, nil
	}

	if len(p.reusable) == 0 {
		return 0, errors.New("ran out of ids").
			WithType(ErrTypeOutOfIDs).
			WithTag("max_id", p.maxID)
	}

	id := p.reusable[0]
	p.reusable = p.reusable[1:]
	return id, nil
}

// Reuse gives back an id previously returned by New.
func (p *IDPool[T]) Reuse(id T) error {
	if id == 0 || id > p.maxID {
		return errors.New("id is out of range").
			WithType(ErrTypeIDOutOfRange).
			WithTag("id", id).
			WithTag("max_id", p.maxID)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.reusable = append(p.reusable, id)
	return nil
}

// HasIDsLeft reports whether New would succeed.
func (p *IDPool[T]) HasIDsLeft() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return !p.exhausted || len(p.reusable) != 0
}
