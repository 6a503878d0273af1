package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mailtriage/core/port/out"
	"mailtriage/pkg/apperr"
)

const collectionMessages = "triaged_messages"

// ArchiveAdapter stores full message bodies and the replies sent for
// them, implementing out.ArchiveStore.
type ArchiveAdapter struct {
	collection *mongo.Collection
}

func NewArchiveAdapter(db *mongo.Database) *ArchiveAdapter {
	return &ArchiveAdapter{collection: db.Collection(collectionMessages)}
}

// EnsureIndexes creates the lookup indexes for the collection.
func (a *ArchiveAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ticket_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "sender", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "archived_at", Value: -1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type archivedDocument struct {
	Sender       string    `bson:"sender"`
	Subject      string    `bson:"subject"`
	Content      string    `bson:"content"`
	Category     string    `bson:"category"`
	TicketID     string    `bson:"ticket_id"`
	ReplySubject string    `bson:"reply_subject"`
	ReplyBody    string    `bson:"reply_body"`
	ArchivedAt   time.Time `bson:"archived_at"`
}

func (a *ArchiveAdapter) SaveMessage(ctx context.Context, msg *out.ArchivedMessage) error {
	doc := archivedDocument{
		Sender:       msg.Sender,
		Subject:      msg.Subject,
		Content:      msg.Content,
		Category:     msg.Category,
		TicketID:     msg.TicketID,
		ReplySubject: msg.ReplySubject,
		ReplyBody:    msg.ReplyBody,
		ArchivedAt:   time.Now().UTC(),
	}

	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return apperr.DatabaseError(err)
	}
	return nil
}

var _ out.ArchiveStore = (*ArchiveAdapter)(nil)
