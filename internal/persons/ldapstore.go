package persons

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

type ldapStore struct {
	ldapURL       string
	baseDN        string
	bindUser      string
	bindPassword  string
	objectClass   string
	idAttr        string
	firstNameAttr string
	lastNameAttr  string
	readOnly      bool
}

func parameterOrDefault(settings *StoreSettings, name, defaultValue string) string {
	if value := strings.TrimSpace(settings.Parameters[name]); value != "" {
		return value
	}
	return defaultValue
}

func NewLdapStore(settings *StoreSettings) (Store, error) {
	var ldapURL, baseDN, bindUsername, bindPassword string
	var readOnly bool

	if uri, err := url.Parse(settings.URI); err == nil {
		if uri.User != nil {
			bindUsername = strings.ReplaceAll(uri.User.Username(), "+", " ")
			bindPassword, _ = uri.User.Password()
			for key, value := range uri.Query() {
				switch strings.ToLower(key) {
				case "readonly", "read-only", "read_only":
					readOnly, err = strconv.ParseBool(value[0])
					if err != nil {
						return nil, err
					}
				}
			}
		} else {
			readOnly = true
		}
		baseDN = strings.Trim(uri.Path, " \t\r\n/")
		ldapURL = fmt.Sprintf("%s://%s", uri.Scheme, uri.Host)
	} else {
		return nil, err
	}

	return &ldapStore{
		ldapURL:       ldapURL,
		baseDN:        baseDN,
		bindUser:      bindUsername,
		bindPassword:  bindPassword,
		objectClass:   parameterOrDefault(settings, "object_class", "inetOrgPerson"),
		idAttr:        parameterOrDefault(settings, "id_attribute", "uid"),
		firstNameAttr: parameterOrDefault(settings, "first_name_attribute", "givenName"),
		lastNameAttr:  parameterOrDefault(settings, "last_name_attribute", "sn"),
		readOnly:      readOnly,
	}, nil
}

func (l *ldapStore) attribute(field string) (string, error) {
	switch field {
	case FieldID:
		return l.idAttr, nil
	case FieldFirstName:
		return l.firstNameAttr, nil
	case FieldLastName:
		return l.lastNameAttr, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownField, field)
}

func (l *ldapStore) filter(attr, value string) string {
	if attr == "" {
		return fmt.Sprintf("(objectClass=%s)", ldap.EscapeFilter(l.objectClass))
	}
	return fmt.Sprintf("(&(objectClass=%s)(%s=%s))", ldap.EscapeFilter(l.objectClass), attr, ldap.EscapeFilter(value))
}

func (l *ldapStore) entryDN(id string) string {
	return fmt.Sprintf("%s=%s,%s", l.idAttr, ldap.EscapeDN(id), l.baseDN)
}

func (l *ldapStore) person(entry *ldap.Entry) Person {
	return Person{
		ID:        entry.GetEqualFoldAttributeValue(l.idAttr),
		FirstName: entry.GetEqualFoldAttributeValue(l.firstNameAttr),
		LastName:  entry.GetEqualFoldAttributeValue(l.lastNameAttr),
	}
}

func (l *ldapStore) searchRequest(filter string) *ldap.SearchRequest {
	return ldap.NewSearchRequest(
		l.baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		0,
		false,
		filter,
		[]string{l.idAttr, l.firstNameAttr, l.lastNameAttr},
		nil,
	)
}

func (l *ldapStore) connect() (*ldap.Conn, error) {
	var conn, err = ldap.DialURL(l.ldapURL)
	if err != nil {
		log.Error().Err(err).Msg("ldap connection error")
		return nil, err
	}
	if l.bindUser != "" && l.bindPassword != "" {
		if err = conn.Bind(l.bindUser, l.bindPassword); err != nil {
			log.Error().Err(err).Msg("ldap bind error")
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

func (l *ldapStore) FindAll(ctx context.Context) iter.Seq2[Person, error] {
	return l.search(ctx, l.filter("", ""))
}

func (l *ldapStore) FindByField(ctx context.Context, field, value string) iter.Seq2[Person, error] {
	var attr, err = l.attribute(field)
	if err != nil {
		return fail(err)
	}
	return l.search(ctx, l.filter(attr, value))
}

func (l *ldapStore) search(ctx context.Context, filter string) iter.Seq2[Person, error] {
	return func(yield func(Person, error) bool) {
		var conn, err = l.connect()
		if err != nil {
			yield(Person{}, err)
			return
		}
		defer conn.Close()

		var searchCtx, cancel = context.WithCancel(ctx)
		defer cancel()

		log.Debug().Msgf("LDAP: %s; # %s", filter, l.baseDN)
		var response = conn.SearchAsync(searchCtx, l.searchRequest(filter), 64)
		for response.Next() {
			if entry := response.Entry(); entry != nil {
				if !yield(l.person(entry), nil) {
					return
				}
			}
		}
		if err := response.Err(); err != nil {
			log.Error().Err(err).Msg("Query for persons failed")
			yield(Person{}, err)
		}
	}
}

func (l *ldapStore) writable() bool {
	return !l.readOnly && l.bindUser != "" && l.bindPassword != ""
}

func (l *ldapStore) SaveAll(ctx context.Context, persons iter.Seq[Person]) ([]Person, error) {
	if !l.writable() {
		return nil, ErrReadOnly
	}
	var conn, err = l.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var saved []Person
	for person := range persons {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		var exists bool
		if person.ID == "" {
			person.ID = strings.ToLower(ulid.Make().String())
		} else {
			var results, err = conn.Search(l.searchRequest(l.filter(l.idAttr, person.ID)))
			if err != nil {
				log.Error().Err(err).Msg("Query for person failed")
				return saved, err
			}
			exists = len(results.Entries) > 0
		}
		if exists {
			var req = ldap.NewModifyRequest(l.entryDN(person.ID), nil)
			req.Replace(l.firstNameAttr, []string{person.FirstName})
			req.Replace(l.lastNameAttr, []string{person.LastName})
			req.Replace("cn", []string{commonName(person)})
			log.Debug().Msgf("LDAP: modify %s", req.DN)
			if err := conn.Modify(req); err != nil {
				return saved, err
			}
		} else {
			var req = l.addRequest(person)
			log.Debug().Msgf("LDAP: add %s", req.DN)
			if err := conn.Add(req); err != nil {
				return saved, err
			}
		}
		saved = append(saved, person)
	}
	return saved, nil
}

func commonName(person Person) string {
	if cn := strings.TrimSpace(person.FirstName + " " + person.LastName); cn != "" {
		return cn
	}
	return person.ID
}

func (l *ldapStore) addRequest(person Person) *ldap.AddRequest {
	var req = ldap.NewAddRequest(l.entryDN(person.ID), nil)
	req.Attribute("objectClass", []string{"top", "person", "organizationalPerson", l.objectClass})
	req.Attribute(l.idAttr, []string{person.ID})
	req.Attribute("cn", []string{commonName(person)})
	if person.FirstName != "" {
		req.Attribute(l.firstNameAttr, []string{person.FirstName})
	}
	req.Attribute(l.lastNameAttr, []string{person.LastName})
	return req
}

func (l *ldapStore) DeleteAll(ctx context.Context) error {
	if !l.writable() {
		return ErrReadOnly
	}
	var conn, err = l.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	var filter = l.filter("", "")
	log.Debug().Msgf("LDAP: %s; # %s", filter, l.baseDN)
	var results *ldap.SearchResult
	if results, err = conn.Search(l.searchRequest(filter)); err != nil {
		return err
	}
	for _, entry := range results.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debug().Msgf("LDAP: delete %s", entry.DN)
		if err := conn.Del(ldap.NewDelRequest(entry.DN, nil)); err != nil {
			return err
		}
	}
	return nil
}

func (l *ldapStore) Ping(ctx context.Context) error {
	var conn, err = l.connect()
	if err != nil {
		return err
	}
	conn.Close()
	return nil
}

func (l *ldapStore) ReadOnly() bool {
	return !l.writable()
}

func (l *ldapStore) Close() error {
	return nil
}
