package persons

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"strings"

	"github.com/blockloop/scan/v2"
	"github.com/cwkr/personsd/internal/sqlutil"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

type personRow struct {
	ID        string         `db:"id"`
	FirstName sql.NullString `db:"first_name"`
	LastName  sql.NullString `db:"last_name"`
}

func (p personRow) Person() Person {
	return Person{ID: p.ID, FirstName: p.FirstName.String, LastName: p.LastName.String}
}

var sqlColumns = map[string]string{
	FieldID:        "id",
	FieldFirstName: "first_name",
	FieldLastName:  "last_name",
}

type sqlStore struct {
	dbconn   *sql.DB
	settings *StoreSettings
	columns  []string
}

func NewSqlStore(settings *StoreSettings) (Store, error) {
	var columns, err = scan.Columns(&personRow{})
	if err != nil {
		return nil, err
	}
	if dbconn, err := sqlutil.GetDB(nil, settings.URI); err != nil {
		return nil, err
	} else {
		return &sqlStore{
			dbconn:   dbconn,
			settings: settings,
			columns:  columns,
		}, nil
	}
}

func (s *sqlStore) bind(n int) string {
	return sqlutil.Placeholder(s.settings.URI, n)
}

func (s *sqlStore) selectQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(s.columns, ", "), s.settings.CollectionName())
}

func (s *sqlStore) FindAll(ctx context.Context) iter.Seq2[Person, error] {
	return s.query(ctx, s.selectQuery())
}

func (s *sqlStore) FindByField(ctx context.Context, field, value string) iter.Seq2[Person, error] {
	var column, found = sqlColumns[field]
	if !found {
		return fail(fmt.Errorf("%w: %s", ErrUnknownField, field))
	}
	// SELECT id, first_name, last_name FROM person WHERE first_name = $1
	return s.query(ctx, fmt.Sprintf("%s WHERE %s = %s", s.selectQuery(), column, s.bind(1)), value)
}

func (s *sqlStore) query(ctx context.Context, query string, args ...any) iter.Seq2[Person, error] {
	return func(yield func(Person, error) bool) {
		log.Debug().Msgf("SQL: %s; -- %v", query, args)
		var rows, err = s.dbconn.QueryContext(ctx, query, args...)
		if err != nil {
			log.Error().Err(err).Msg("Query for persons failed")
			yield(Person{}, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var row personRow
			if err := rows.Scan(&row.ID, &row.FirstName, &row.LastName); err != nil {
				yield(Person{}, err)
				return
			}
			if !yield(row.Person(), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Person{}, err)
		}
	}
}

func (s *sqlStore) SaveAll(ctx context.Context, persons iter.Seq[Person]) ([]Person, error) {
	var (
		table  = s.settings.CollectionName()
		insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s, %s, %s)", table, strings.Join(s.columns, ", "), s.bind(1), s.bind(2), s.bind(3))
		update = fmt.Sprintf("UPDATE %s SET first_name = %s, last_name = %s WHERE id = %s", table, s.bind(1), s.bind(2), s.bind(3))
		saved  []Person
	)

	var tx, err = s.dbconn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for person := range persons {
		var exists bool
		if person.ID == "" {
			person.ID = ulid.Make().String()
		} else {
			log.Debug().Msgf("SQL: %s; -- %s, %s, %s", update, person.FirstName, person.LastName, person.ID)
			if result, err := tx.ExecContext(ctx, update, person.FirstName, person.LastName, person.ID); err != nil {
				return nil, err
			} else if affected, err := result.RowsAffected(); err != nil {
				return nil, err
			} else {
				exists = affected > 0
			}
		}
		if !exists {
			var values, err = scan.Values(s.columns, &personRow{
				ID:        person.ID,
				FirstName: sql.NullString{String: person.FirstName, Valid: true},
				LastName:  sql.NullString{String: person.LastName, Valid: true},
			})
			if err != nil {
				return nil, err
			}
			log.Debug().Msgf("SQL: %s; -- %s, %s, %s", insert, person.ID, person.FirstName, person.LastName)
			if _, err := tx.ExecContext(ctx, insert, values...); err != nil {
				return nil, err
			}
		}
		saved = append(saved, person)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *sqlStore) DeleteAll(ctx context.Context) error {
	var query = "DELETE FROM " + s.settings.CollectionName()
	log.Debug().Msgf("SQL: %s", query)
	_, err := s.dbconn.ExecContext(ctx, query)
	return err
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.dbconn.PingContext(ctx)
}

func (s *sqlStore) ReadOnly() bool {
	return false
}

func (s *sqlStore) Close() error {
	return s.dbconn.Close()
}
