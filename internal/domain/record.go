package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind selects the validation rules, storage collection, and read-filter
// policy for a record.
type Kind string

const (
	KindSensor  Kind = "sensor"
	KindCitizen Kind = "citizen"
	KindPre     Kind = "pre"
)

// Kinds returns all record kinds in their canonical response order.
func Kinds() []Kind {
	return []Kind{KindSensor, KindCitizen, KindPre}
}

// Collection returns the store collection name for the kind. The mapping is
// static; an unknown kind is a programming error and panics.
func (k Kind) Collection() string {
	switch k {
	case KindSensor:
		return "sensorData"
	case KindCitizen:
		return "citizenReports"
	case KindPre:
		return "preReports"
	default:
		panic("domain: unknown record kind " + string(k))
	}
}

// Record is the common behavior of all stored record types. StampCreatedAt is
// called by the store gateway immediately before the insert so that ingestion
// time can never be falsified by the client.
type Record interface {
	RecordKind() Kind
	StampCreatedAt(t time.Time)
}

// SensorReading is one hardware sensor measurement. Time is the
// client-supplied event time in epoch milliseconds; CreatedAt is the
// gateway-assigned ingestion timestamp.
type SensorReading struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Lat       float64            `bson:"lat" json:"lat"`
	Lon       float64            `bson:"lon" json:"lon"`
	Smoke     float64            `bson:"smoke" json:"smoke"`
	Temp      float64            `bson:"temp" json:"temp"`
	Humidity  float64            `bson:"humidity" json:"humidity"`
	Time      int64              `bson:"time" json:"time"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func (r *SensorReading) RecordKind() Kind { return KindSensor }
func (r *SensorReading) StampCreatedAt(t time.Time) { r.CreatedAt = t }

// CitizenReport is a report submitted by a person through the map frontend.
type CitizenReport struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Lat       float64            `bson:"lat" json:"lat"`
	Lon       float64            `bson:"lon" json:"lon"`
	Time      int64              `bson:"time" json:"time"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func (r *CitizenReport) RecordKind() Kind { return KindCitizen }
func (r *CitizenReport) StampCreatedAt(t time.Time) { r.CreatedAt = t }

// PreReport announces a scheduled burn: visible on the map from creation
// until EndDate passes. StartDate is stored but does not gate visibility.
type PreReport struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Lat       float64            `bson:"lat" json:"lat"`
	Lon       float64            `bson:"lon" json:"lon"`
	StartDate int64              `bson:"startDate" json:"startDate"`
	EndDate   int64              `bson:"endDate" json:"endDate"`
	RangeKm   float64            `bson:"rangeKm" json:"rangeKm"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func (r *PreReport) RecordKind() Kind { return KindPre }
func (r *PreReport) StampCreatedAt(t time.Time) { r.CreatedAt = t }

// Snapshot is the combined read served to the map frontend: one consistent
// instant across all three collections.
type Snapshot struct {
	SensorData     []SensorReading `json:"sensorData"`
	CitizenReports []CitizenReport `json:"citizenReports"`
	PreReports     []PreReport     `json:"preReports"`
}
