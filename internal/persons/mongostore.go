package persons

import (
	"context"
	"fmt"
	"iter"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

type personDocument struct {
	ID        any    `bson:"_id,omitempty"`
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
}

func (d personDocument) Person() Person {
	var id string
	switch v := d.ID.(type) {
	case nil:
	case primitive.ObjectID:
		id = v.Hex()
	case string:
		id = v
	default:
		id = fmt.Sprint(v)
	}
	return Person{ID: id, FirstName: d.FirstName, LastName: d.LastName}
}

// documentID stores ids that look like object ids as such, everything else as string.
func documentID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func newPersonDocument(person Person) personDocument {
	var doc = personDocument{FirstName: person.FirstName, LastName: person.LastName}
	if person.ID != "" {
		doc.ID = documentID(person.ID)
	}
	return doc
}

func mongoFilter(field, value string) (bson.D, error) {
	switch field {
	case FieldID:
		return bson.D{{Key: "_id", Value: documentID(value)}}, nil
	case FieldFirstName, FieldLastName:
		return bson.D{{Key: field, Value: value}}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
}

type mongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, settings *StoreSettings) (Store, error) {
	var database = settings.Database
	if database == "" {
		if cs, err := connstring.ParseAndValidate(settings.URI); err != nil {
			return nil, err
		} else {
			database = cs.Database
		}
	}
	if database == "" {
		database = "test"
	}
	var client, err = mongo.Connect(ctx, options.Client().ApplyURI(settings.URI))
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", database).Str("collection", settings.CollectionName()).Msg("Connected to MongoDB")
	return &mongoStore{
		client:     client,
		collection: client.Database(database).Collection(settings.CollectionName()),
	}, nil
}

func (m *mongoStore) FindAll(ctx context.Context) iter.Seq2[Person, error] {
	return m.find(ctx, bson.D{})
}

func (m *mongoStore) FindByField(ctx context.Context, field, value string) iter.Seq2[Person, error] {
	var filter, err = mongoFilter(field, value)
	if err != nil {
		return fail(err)
	}
	return m.find(ctx, filter)
}

func (m *mongoStore) find(ctx context.Context, filter bson.D) iter.Seq2[Person, error] {
	return func(yield func(Person, error) bool) {
		log.Debug().Msgf("MONGO: %s.find(%v)", m.collection.Name(), filter)
		var cursor, err = m.collection.Find(ctx, filter)
		if err != nil {
			log.Error().Err(err).Msg("Query for persons failed")
			yield(Person{}, err)
			return
		}
		defer cursor.Close(context.WithoutCancel(ctx))
		for cursor.Next(ctx) {
			var doc personDocument
			if err := cursor.Decode(&doc); err != nil {
				yield(Person{}, err)
				return
			}
			if !yield(doc.Person(), nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(Person{}, err)
		}
	}
}

func (m *mongoStore) SaveAll(ctx context.Context, persons iter.Seq[Person]) ([]Person, error) {
	var (
		models []mongo.WriteModel
		saved  []Person
	)
	for person := range persons {
		var doc = newPersonDocument(person)
		if doc.ID == nil {
			var oid = primitive.NewObjectID()
			doc.ID = oid
			person.ID = oid.Hex()
			models = append(models, mongo.NewInsertOneModel().SetDocument(doc))
		} else {
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.D{{Key: "_id", Value: doc.ID}}).
				SetReplacement(doc).
				SetUpsert(true))
		}
		saved = append(saved, person)
	}
	if len(models) == 0 {
		return saved, nil
	}
	log.Debug().Msgf("MONGO: %s.bulkWrite(%d)", m.collection.Name(), len(models))
	if _, err := m.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return nil, err
	}
	return saved, nil
}

func (m *mongoStore) DeleteAll(ctx context.Context) error {
	log.Debug().Msgf("MONGO: %s.deleteMany({})", m.collection.Name())
	_, err := m.collection.DeleteMany(ctx, bson.D{})
	return err
}

func (m *mongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *mongoStore) ReadOnly() bool {
	return false
}

func (m *mongoStore) Close() error {
	return m.client.Disconnect(context.Background())
}
