package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RelayFailureOriginDocument はリレー失敗時のリクエスト元情報の埋め込み構造を表す。
type RelayFailureOriginDocument struct {
	Country   string `bson:"country"`
	Region    string `bson:"region"`
	City      string `bson:"city"`
	Latitude  string `bson:"latitude"`
	Longitude string `bson:"longitude"`
}

// RelayFailureDocument は failed_notifications コレクション上のスキーマ。
type RelayFailureDocument struct {
	ID          primitive.ObjectID         `bson:"_id,omitempty"`
	Target      string                     `bson:"target"`
	IncidentID  string                     `bson:"incidentId"`
	SourceKey   string                     `bson:"sourceKey"`
	Message     string                     `bson:"message"`
	Origin      RelayFailureOriginDocument `bson:"origin"`
	Error       string                     `bson:"error"`
	Attempts    int                        `bson:"attempts"`
	Status      string                     `bson:"status"`
	CreatedAt   time.Time                  `bson:"createdAt"`
	LastTriedAt time.Time                  `bson:"lastTriedAt"`
	UpdatedAt   *time.Time                 `bson:"updatedAt,omitempty"`
}
