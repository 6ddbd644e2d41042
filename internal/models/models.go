package models

import "time"

// ContextRecord is one travel context, optionally labeled with the place that
// was accepted for it. JSON names follow the wire format used by the record
// store and the HTTP API.
type ContextRecord struct {
	ID                 string    `json:"id,omitempty" bson:"id,omitempty"`
	Month              string    `json:"Month" bson:"Month"`
	Season             string    `json:"Season" bson:"Season"`
	Budget             string    `json:"Budget" bson:"Budget"`
	ActivityPreference string    `json:"Activity_Preference" bson:"Activity_Preference"`
	Temperature        *float64  `json:"Temperature,omitempty" bson:"Temperature,omitempty"`
	Weather            string    `json:"Weather,omitempty" bson:"Weather,omitempty"`
	GroupSize          *int      `json:"Group_Size,omitempty" bson:"Group_Size,omitempty"`
	SuggestedPlace     string    `json:"Suggested_Place,omitempty" bson:"Suggested_Place,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
}

// Labeled reports whether the record carries an accepted place.
func (r ContextRecord) Labeled() bool {
	return r.SuggestedPlace != ""
}

// TemperatureOrZero returns the recorded temperature, or 0 when absent.
func (r ContextRecord) TemperatureOrZero() float64 {
	if r.Temperature == nil {
		return 0
	}
	return *r.Temperature
}

// Float64 returns a pointer to v, for optional numeric fields.
func Float64(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// Suggestion is a ranked place with its model probability
type Suggestion struct {
	Place       string  `json:"place"`
	Probability float64 `json:"probability"`
}

// RecommendResponse contains the ranked places for a query record
type RecommendResponse struct {
	SuggestedPlaces []string     `json:"suggested_places"`
	Details         []Suggestion `json:"details,omitempty"`
}

// UserDataResponse wraps the stored records
type UserDataResponse struct {
	Data []ContextRecord `json:"data"`
}

// AddUserDataResponse is returned after a record has been stored
type AddUserDataResponse struct {
	Message    string `json:"message"`
	Prediction string `json:"prediction"`
	ID         string `json:"id,omitempty"`
}

// TrainResponse summarises a training run
type TrainResponse struct {
	VocabularySize int     `json:"vocabulary_size"`
	Records        int     `json:"records"`
	Balanced       int     `json:"balanced"`
	PerLabel       int     `json:"per_label"`
	Epochs         int     `json:"epochs"`
	Loss           float64 `json:"loss"`
}
