package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
)

const notesCollection = "notes"

type NoteRepository struct {
	coll *mongo.Collection
}

func NewNoteRepository(db *mongo.Database) *NoteRepository {
	return &NoteRepository{coll: db.Collection(notesCollection)}
}

type mongoNote struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     string             `bson:"owner_id"`
	Text        string             `bson:"text"`
	IsCompleted bool               `bson:"is_completed"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (n mongoNote) toDomain() *domain.Note {
	return &domain.Note{
		ID:          n.ID.Hex(),
		OwnerID:     n.OwnerID,
		Text:        n.Text,
		IsCompleted: n.IsCompleted,
		CreatedAt:   n.CreatedAt.UTC(),
	}
}

// EnsureIndexes creates the owner listing index.
func (r *NoteRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	res, err := r.coll.InsertOne(ctx, mongoNote{
		OwnerID:     note.OwnerID,
		Text:        note.Text,
		IsCompleted: note.IsCompleted,
		CreatedAt:   note.CreatedAt,
	})
	if err != nil {
		return nil, storeError("insert note", err)
	}
	created := *note
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

// ownedFilter returns nil when id is not a valid ObjectID; such a note cannot exist.
func ownedFilter(id, ownerID string) bson.M {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	return bson.M{"_id": oid, "owner_id": ownerID}
}

func (r *NoteRepository) FindByID(ctx context.Context, id, ownerID string) (*domain.Note, error) {
	filter := ownedFilter(id, ownerID)
	if filter == nil {
		return nil, domain.ErrNoteNotFound
	}
	var doc mongoNote
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, storeError("find note", err)
	}
	return doc.toDomain(), nil
}

func (r *NoteRepository) List(ctx context.Context, f ports.NoteFilter) ([]*domain.Note, error) {
	query := bson.M{"owner_id": f.OwnerID}
	if f.Search != "" {
		query["text"] = bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(f.Skip)).
		SetLimit(int64(f.Limit))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, storeError("list notes", err)
	}
	defer cur.Close(ctx)

	var docs []mongoNote
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeError("list notes", err)
	}
	notes := make([]*domain.Note, 0, len(docs))
	for _, d := range docs {
		notes = append(notes, d.toDomain())
	}
	return notes, nil
}

func (r *NoteRepository) Update(ctx context.Context, note *domain.Note) error {
	filter := ownedFilter(note.ID, note.OwnerID)
	if filter == nil {
		return domain.ErrNoteNotFound
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"text":         note.Text,
		"is_completed": note.IsCompleted,
	}})
	if err != nil {
		return storeError("update note", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id, ownerID string) error {
	filter := ownedFilter(id, ownerID)
	if filter == nil {
		return domain.ErrNoteNotFound
	}
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return storeError("delete note", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}
