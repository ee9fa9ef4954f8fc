package mongodb

import (
	"context"
	"fmt"
	"time"

	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AppointmentsCollection holds confirmed bookings.
const AppointmentsCollection = "appointments"

// MongoAppointmentRepository implements the AppointmentRepository interface using MongoDB
type MongoAppointmentRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

var _ repository.AppointmentRepository = (*MongoAppointmentRepository)(nil)

// NewMongoAppointmentRepository creates the repository and its indexes.
func NewMongoAppointmentRepository(ctx context.Context, db *mongo.Database) (*MongoAppointmentRepository, error) {
	repo := &MongoAppointmentRepository{
		db:         db,
		collection: db.Collection(AppointmentsCollection),
	}

	// One booking per doctor and slot
	slotIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "scheduled_at", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	userIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "user_email", Value: 1}, {Key: "scheduled_at", Value: 1}},
	}

	if _, err := repo.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{slotIndex, userIndex}); err != nil {
		return nil, fmt.Errorf("create appointment indexes: %w", err)
	}
	return repo, nil
}

// Create inserts a confirmed booking.
func (r *MongoAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	if appt == nil {
		return errors.NewValidationError("appointment cannot be nil")
	}
	_, err := r.collection.InsertOne(ctx, appt)
	if mongo.IsDuplicateKeyError(err) {
		return errors.NewConflictError("This time slot is no longer available").WithCause(err)
	}
	if err != nil {
		return errors.NewInfrastructureError("failed to store appointment").WithCause(err)
	}
	return nil
}

// ListByUser returns the bookings of userEmail, earliest first.
func (r *MongoAppointmentRepository) ListByUser(ctx context.Context, userEmail string) ([]*model.Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_email": userEmail}, opts)
	if err != nil {
		return nil, errors.NewInfrastructureError("failed to list appointments").WithCause(err)
	}
	defer cursor.Close(ctx)

	out := make([]*model.Appointment, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errors.NewInfrastructureError("failed to decode appointments").WithCause(err)
	}
	return out, nil
}

// SlotTaken reports whether doctorID is booked at scheduledAt.
func (r *MongoAppointmentRepository) SlotTaken(ctx context.Context, doctorID int, scheduledAt time.Time) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"doctor_id": doctorID, "scheduled_at": scheduledAt}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.NewInfrastructureError("failed to check slot").WithCause(err)
	}
	return n > 0, nil
}

// Ping checks the server connection.
func (r *MongoAppointmentRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}
