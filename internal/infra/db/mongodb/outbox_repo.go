package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dcastanera/matriculabus/internal/outbox"
)

// OutboxRepoMongoDB implementa la interfaz outbox.Repository.
type OutboxRepoMongoDB struct {
	outboxColl *mongo.Collection
}

func NewOutboxRepoMongoDB(client *mongo.Client, dbName string) *OutboxRepoMongoDB {
	outboxColl := client.Database(dbName).Collection("outbox")
	return &OutboxRepoMongoDB{outboxColl: outboxColl}
}

// mongoOutboxEvent mapea los documentos de la colección a un struct.
type mongoOutboxEvent struct {
	ID            uuid.UUID   `bson:"_id"`
	AggregateType string      `bson:"aggregateType"`
	AggregateID   string      `bson:"aggregateId"`
	EventType     string      `bson:"eventType"`
	Payload       interface{} `bson:"payload"`
	CreatedAt     time.Time   `bson:"createdAt"`
	Processed     bool        `bson:"processed"`
}

func (r *OutboxRepoMongoDB) Append(ctx context.Context, evt outbox.Event) error {
	var payload interface{}
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return fmt.Errorf("invalid JSON payload for outbox event %s: %w", evt.ID, err)
	}

	doc := mongoOutboxEvent{
		ID:            evt.ID,
		AggregateType: evt.AggregateType,
		AggregateID:   evt.AggregateID,
		EventType:     evt.EventType,
		Payload:       payload,
		CreatedAt:     evt.CreatedAt,
		Processed:     false,
	}
	_, err := r.outboxColl.InsertOne(ctx, doc)
	return err
}

// FetchPending obtiene los eventos no procesados de la colección outbox.
func (r *OutboxRepoMongoDB) FetchPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	filter := bson.M{"processed": false}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))

	cursor, err := r.outboxColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []outbox.Event
	for cursor.Next(ctx) {
		var mo mongoOutboxEvent
		if err := cursor.Decode(&mo); err != nil {
			return nil, err
		}

		// Convertimos el documento BSON a nuestro struct de dominio; el
		// payload vuelve a JSON crudo para el publisher.
		payloadBytes, err := json.Marshal(mo.Payload)
		if err != nil {
			return nil, fmt.Errorf("invalid payload in outbox document %s: %w", mo.ID, err)
		}

		events = append(events, outbox.Event{
			ID:            mo.ID,
			AggregateType: mo.AggregateType,
			AggregateID:   mo.AggregateID,
			EventType:     mo.EventType,
			Payload:       payloadBytes,
			CreatedAt:     mo.CreatedAt,
			Processed:     mo.Processed,
		})
	}

	return events, cursor.Err()
}

// MarkProcessed marca un evento como procesado.
func (r *OutboxRepoMongoDB) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"processed": true}}

	res, err := r.outboxColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

// Verificación en tiempo de compilación.
var _ outbox.Repository = (*OutboxRepoMongoDB)(nil)
