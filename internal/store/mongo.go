package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"attendtrack/internal/model"
)

const (
	usersCollection      = "users"
	attendanceCollection = "attendance"
)

// Mongo wraps a client bound to one database.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewMongo connects to uri and verifies the server is reachable.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{Client: client, DB: client.Database(database)}, nil
}

// EnsureIndexes creates the unique indexes the repositories rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.DB.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	_, err = m.DB.Collection(attendanceCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_attendance_user_date"),
	})
	if err != nil {
		return fmt.Errorf("create attendance indexes: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}
	return m.Client.Disconnect(ctx)
}

func mongoDuplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%v: %w", err, model.ErrDuplicateKey)
	}
	return err
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	Email        string             `bson:"email"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d userDoc) toModel() model.User {
	return model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Role:         model.Role(d.Role),
		CreatedAt:    d.CreatedAt,
	}
}

type attendanceDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Date      time.Time          `bson:"date"`
	Status    string             `bson:"status"`
	MarkedAt  time.Time          `bson:"marked_at"`
	Notes     string             `bson:"notes,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d attendanceDoc) toModel() model.Attendance {
	return model.Attendance{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		Date:      d.Date,
		Status:    model.Status(d.Status),
		MarkedAt:  d.MarkedAt,
		Notes:     d.Notes,
		CreatedAt: d.CreatedAt,
	}
}

// MongoUsers persists users in a MongoDB collection.
type MongoUsers struct {
	coll *mongo.Collection
}

// NewMongoUsers creates a repo.
func NewMongoUsers(m *Mongo) *MongoUsers {
	return &MongoUsers{coll: m.DB.Collection(usersCollection)}
}

// Create inserts u, assigning its ID.
func (r *MongoUsers) Create(ctx context.Context, u *model.User) error {
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mongoDuplicate(err)
	}
	u.ID = doc.ID.Hex()
	u.CreatedAt = doc.CreatedAt
	return nil
}

func (r *MongoUsers) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	u := doc.toModel()
	return &u, nil
}

// FindByID returns nil, nil for unknown or malformed ids.
func (r *MongoUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByUsername returns nil, nil when no user has that name.
func (r *MongoUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

var membersFilter = bson.M{"role": bson.M{"$ne": string(model.RoleAdmin)}}

// ListMembers lists non-admin users, newest first.
func (r *MongoUsers) ListMembers(ctx context.Context, offset, limit int) ([]model.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, membersFilter, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.User, len(docs))
	for i, d := range docs {
		out[i] = d.toModel()
	}
	return out, nil
}

// CountMembers counts non-admin users.
func (r *MongoUsers) CountMembers(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, membersFilter)
}

// MongoAttendance persists attendance records in a MongoDB collection.
type MongoAttendance struct {
	coll *mongo.Collection
}

// NewMongoAttendance creates a repo.
func NewMongoAttendance(m *Mongo) *MongoAttendance {
	return &MongoAttendance{coll: m.DB.Collection(attendanceCollection)}
}

// Insert writes rec. The unique {user_id, date} index rejects a second mark.
func (r *MongoAttendance) Insert(ctx context.Context, rec *model.Attendance) error {
	uid, err := primitive.ObjectIDFromHex(rec.UserID)
	if err != nil {
		return fmt.Errorf("user id %q: %w", rec.UserID, err)
	}
	doc := attendanceDoc{
		ID:        primitive.NewObjectID(),
		UserID:    uid,
		Date:      rec.Date,
		Status:    string(rec.Status),
		MarkedAt:  rec.MarkedAt,
		Notes:     rec.Notes,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mongoDuplicate(err)
	}
	rec.ID = doc.ID.Hex()
	rec.CreatedAt = doc.CreatedAt
	return nil
}

// FindByDate returns the user's record for date, or nil, nil.
func (r *MongoAttendance) FindByDate(ctx context.Context, userID string, date time.Time) (*model.Attendance, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	var doc attendanceDoc
	if err := r.coll.FindOne(ctx, bson.M{"user_id": uid, "date": date}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	a := doc.toModel()
	return &a, nil
}

// ListByUser lists a user's records, most recent day first.
func (r *MongoAttendance) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Attendance, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"user_id": uid}, opts)
	if err != nil {
		return nil, err
	}
	var docs []attendanceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Attendance, len(docs))
	for i, d := range docs {
		out[i] = d.toModel()
	}
	return out, nil
}

// CountByUser returns total and present record counts from a single aggregation, so both
// numbers describe the same snapshot.
func (r *MongoAttendance) CountByUser(ctx context.Context, userID string) (int64, int64, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, 0, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": uid}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"present": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", string(model.StatusPresent)}}, 1, 0},
			}},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	var rows []struct {
		Total   int64 `bson:"total"`
		Present int64 `bson:"present"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Total, rows[0].Present, nil
}
