package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reminder/internal/logger"
	"reminder/internal/models"
)

type MongoStore struct {
	client  *mongo.Client
	db      string
	coll    string
	timeout time.Duration
}

func NewMongoStore(ctx context.Context, uri, db, coll string) (*MongoStore, error) {
	if db == "" {
		db = "reminder"
	}
	if coll == "" {
		coll = "tasks"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &MongoStore{
		client:  client,
		db:      db,
		coll:    coll,
		timeout: 5 * time.Second,
	}, nil
}

type taskDoc struct {
	ID          string  `bson:"_id"`
	Position    int     `bson:"position"`
	Title       string  `bson:"title"`
	Deadline    *string `bson:"deadline"`
	Description *string `bson:"description"`
	Completed   bool    `bson:"completed"`
}

func toDoc(i int, t models.Task) taskDoc {
	d := taskDoc{
		ID:          t.ID.String(),
		Position:    i,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
	}
	if t.Deadline != nil {
		s := t.Deadline.String()
		d.Deadline = &s
	}
	return d
}

func (d taskDoc) toTask() (models.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Task{}, fmt.Errorf("bad task id %q: %w", d.ID, err)
	}
	t := models.Task{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
	}
	if d.Deadline != nil {
		date, err := models.ParseDate(*d.Deadline)
		if err != nil {
			return models.Task{}, err
		}
		t.Deadline = &date
	}
	return t, nil
}

func (s *MongoStore) collection() *mongo.Collection {
	return s.client.Database(s.db).Collection(s.coll)
}

func (s *MongoStore) Load(ctx context.Context) ([]models.Task, error) {
	defer observe(DriverMongo, "load", time.Now())

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.collection().Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	tasks := []models.Task{}
	for cur.Next(ctx) {
		var d taskDoc
		if err := cur.Decode(&d); err != nil {
			return s.corrupt(ctx, err), nil
		}
		t, err := d.toTask()
		if err != nil {
			return s.corrupt(ctx, err), nil
		}
		tasks = append(tasks, t)
	}
	return tasks, cur.Err()
}

func (s *MongoStore) corrupt(ctx context.Context, err error) []models.Task {
	corruptLoads.WithLabelValues(DriverMongo).Inc()
	logger.Warn(ctx, "task collection holds a malformed document, starting empty", "collection", s.coll, "err", err)
	return []models.Task{}
}

// Save заменяет коллекцию целиком. Без транзакции: между DeleteMany и
// InsertMany читатель может увидеть пустую коллекцию.
func (s *MongoStore) Save(ctx context.Context, tasks []models.Task) error {
	defer observe(DriverMongo, "save", time.Now())

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	col := s.collection()
	if _, err := col.DeleteMany(ctx, bson.D{}); err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}
	docs := make([]any, 0, len(tasks))
	for i, t := range tasks {
		docs = append(docs, toDoc(i, t))
	}
	_, err := col.InsertMany(ctx, docs)
	return err
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
