package persons

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/cwkr/personsd/internal/sqlutil"
)

const (
	FieldID        = "id"
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
)

var (
	ErrUnknownField   = errors.New("unknown person field")
	ErrReadOnly       = errors.New("person store is read only")
	ErrUnsupportedURI = errors.New("unsupported or empty person_store.uri")
)

// Store is the capability set the service composes. Sequences are lazy: the
// backend fetches records as the consumer pulls them and releases its cursor
// when iteration stops.
type Store interface {
	FindAll(ctx context.Context) iter.Seq2[Person, error]
	FindByField(ctx context.Context, field, value string) iter.Seq2[Person, error]
	SaveAll(ctx context.Context, persons iter.Seq[Person]) ([]Person, error)
	DeleteAll(ctx context.Context) error
	Ping(ctx context.Context) error
	ReadOnly() bool
	Close() error
}

func NewStore(ctx context.Context, seed []Person, settings *StoreSettings) (Store, error) {
	if settings == nil || strings.TrimSpace(settings.URI) == "" {
		return NewInMemoryStore(seed), nil
	}
	var uri = settings.URI
	switch {
	case strings.HasPrefix(uri, "mongodb:"), strings.HasPrefix(uri, "mongodb+srv:"):
		return NewMongoStore(ctx, settings)
	case strings.HasPrefix(uri, "ldap:"), strings.HasPrefix(uri, "ldaps:"):
		return NewLdapStore(settings)
	case sqlutil.IsDatabaseURI(uri):
		return NewSqlStore(settings)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedURI, uri)
}

func fail(err error) iter.Seq2[Person, error] {
	return func(yield func(Person, error) bool) {
		yield(Person{}, err)
	}
}
