package persons

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
)

type inMemoryStore struct {
	mu      sync.RWMutex
	persons []Person
}

func NewInMemoryStore(seed []Person) Store {
	var store = &inMemoryStore{}
	for _, person := range seed {
		if person.ID == "" {
			person.ID = ulid.Make().String()
		}
		store.persons = append(store.persons, person)
	}
	return store
}

func fieldValue(person Person, field string) (string, error) {
	switch field {
	case FieldID:
		return person.ID, nil
	case FieldFirstName:
		return person.FirstName, nil
	case FieldLastName:
		return person.LastName, nil
	}
	return "", ErrUnknownField
}

func (i *inMemoryStore) snapshot() []Person {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return slices.Clone(i.persons)
}

func (i *inMemoryStore) FindAll(ctx context.Context) iter.Seq2[Person, error] {
	return i.find(ctx, "", "")
}

func (i *inMemoryStore) FindByField(ctx context.Context, field, value string) iter.Seq2[Person, error] {
	if _, err := fieldValue(Person{}, field); err != nil {
		return fail(fmt.Errorf("%w: %q", err, field))
	}
	return i.find(ctx, field, value)
}

// find yields every record when field is empty.
func (i *inMemoryStore) find(ctx context.Context, field, value string) iter.Seq2[Person, error] {
	return func(yield func(Person, error) bool) {
		for _, person := range i.snapshot() {
			if err := ctx.Err(); err != nil {
				yield(Person{}, err)
				return
			}
			if field != "" {
				if v, _ := fieldValue(person, field); v != value {
					continue
				}
			}
			if !yield(person, nil) {
				return
			}
		}
	}
}

func (i *inMemoryStore) SaveAll(ctx context.Context, persons iter.Seq[Person]) ([]Person, error) {
	var saved []Person
	i.mu.Lock()
	defer i.mu.Unlock()
	for person := range persons {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if person.ID == "" {
			person.ID = ulid.Make().String()
		}
		if index := slices.IndexFunc(i.persons, func(p Person) bool { return p.ID == person.ID }); index >= 0 {
			i.persons[index] = person
		} else {
			i.persons = append(i.persons, person)
		}
		saved = append(saved, person)
	}
	return saved, nil
}

func (i *inMemoryStore) DeleteAll(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.persons = nil
	return nil
}

func (i *inMemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (i *inMemoryStore) ReadOnly() bool {
	return false
}

func (i *inMemoryStore) Close() error {
	return nil
}
