package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/ratiba/core/appointment"
)

type appointmentDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	StudentID       primitive.ObjectID `bson:"studentId"`
	TeacherID       primitive.ObjectID `bson:"teacherId"`
	AppointmentDate time.Time          `bson:"appointmentDate"`
	Purpose         string             `bson:"purpose"`
	Status          string             `bson:"status"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

type appointmentRepository struct {
	coll *mongo.Collection
}

var _ appointment.Repository = (*appointmentRepository)(nil) // interface compliance check

func NewAppointmentRepository(db *DB) appointment.Repository {
	return &appointmentRepository{coll: db.db.Collection(appointmentsCollection)}
}

func (repo *appointmentRepository) fromDoc(doc appointmentDoc) appointment.Appointment {
	return appointment.Appointment{
		ID:              hexID(doc.ID),
		StudentID:       hexID(doc.StudentID),
		TeacherID:       hexID(doc.TeacherID),
		AppointmentDate: doc.AppointmentDate.UTC(),
		Purpose:         doc.Purpose,
		Status:          doc.Status,
		CreatedAt:       doc.CreatedAt.UTC(),
		UpdatedAt:       doc.UpdatedAt.UTC(),
	}
}

func (repo *appointmentRepository) CreateAppointment(ctx context.Context, appt appointment.Appointment) (appointment.Appointment, error) {
	studentID, err := foreignID("studentId", appt.StudentID)
	if err != nil {
		return appointment.Appointment{}, err
	}
	teacherID, err := foreignID("teacherId", appt.TeacherID)
	if err != nil {
		return appointment.Appointment{}, err
	}

	doc := appointmentDoc{
		ID:              primitive.NewObjectID(),
		StudentID:       studentID,
		TeacherID:       teacherID,
		AppointmentDate: appt.AppointmentDate.UTC(),
		Purpose:         appt.Purpose,
		Status:          appt.Status,
		CreatedAt:       appt.CreatedAt.UTC(),
		UpdatedAt:       appt.UpdatedAt.UTC(),
	}
	if _, err = repo.coll.InsertOne(ctx, doc); err != nil {
		return appointment.Appointment{}, errors.Wrap(err, "inserting appointment")
	}
	return repo.fromDoc(doc), nil
}

func (repo *appointmentRepository) GetAppointmentByID(ctx context.Context, id string) (appointment.Appointment, error) {
	oid, ok := objectID(id)
	if !ok {
		return appointment.Appointment{}, appointment.ErrNotFound
	}
	var doc appointmentDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return appointment.Appointment{}, appointment.ErrNotFound
		}
		return appointment.Appointment{}, errors.Wrap(err, "finding appointment")
	}
	return repo.fromDoc(doc), nil
}

func (repo *appointmentRepository) FilterAppointments(ctx context.Context, filter appointment.QueryFilter) ([]appointment.Appointment, error) {
	q := bson.M{}
	if filter.StudentID != "" {
		q["studentId"] = refID(filter.StudentID)
	}
	if filter.TeacherID != "" {
		q["teacherId"] = refID(filter.TeacherID)
	}

	cur, err := repo.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "filtering appointments")
	}
	var docs []appointmentDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding appointments")
	}

	appts := make([]appointment.Appointment, 0, len(docs))
	for _, doc := range docs {
		appts = append(appts, repo.fromDoc(doc))
	}
	return appts, nil
}

func (repo *appointmentRepository) TransitionAppointment(
	ctx context.Context,
	id, teacherID, from, to string,
	at time.Time,
) (appointment.Appointment, error) {
	oid, ok := objectID(id)
	if !ok {
		return appointment.Appointment{}, appointment.ErrNotPending
	}
	filter := bson.M{"_id": oid, "teacherId": refID(teacherID), "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": at.UTC()}}

	var doc appointmentDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return appointment.Appointment{}, appointment.ErrNotPending
		}
		return appointment.Appointment{}, errors.Wrap(err, "updating appointment status")
	}
	return repo.fromDoc(doc), nil
}
