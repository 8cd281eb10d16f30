// Package suggestion finds lagging muscles and maintains the per-bucket
// workout suggestion caches.
package suggestion

import (
	"fmt"

	"github.com/tmduggan/Gordon-sub000/internal/suggestion/internal/generator"
)

// Suggestion is one cached workout suggestion.
type Suggestion = generator.Suggestion

// Bucket is an equipment-category partition with its own suggestion cache.
type Bucket string

const (
	BucketBodyweightOnly Bucket = "bodyweightOnly"
	BucketGymEquipment   Bucket = "gymEquipment"
	BucketCardioOnly     Bucket = "cardioOnly"
	BucketAllExercises   Bucket = "allExercises"
)

// Buckets lists every bucket.
var Buckets = []Bucket{BucketBodyweightOnly, BucketGymEquipment, BucketCardioOnly, BucketAllExercises}

// ParseBucket validates a bucket name from a request path.
func ParseBucket(s string) (Bucket, error) {
	for _, bucket := range Buckets {
		if string(bucket) == s {
			return bucket, nil
		}
	}
	return "", fmt.Errorf("unknown suggestion bucket %q", s)
}

// gymEquipment is the allow-list for the gymEquipment bucket.
var gymEquipment = map[string]bool{
	"body weight": true,
	"barbell":     true,
	"dumbbell":    true,
	"cable":       true,
	"machine":     true,
	"kettlebell":  true,
	"band":        true,
}

// filter returns the catalog filter for this bucket.
func (b Bucket) filter() generator.Filter {
	switch b {
	case BucketBodyweightOnly:
		return generator.Filter{Equipment: map[string]bool{"body weight": true}}
	case BucketGymEquipment:
		return generator.Filter{Equipment: gymEquipment}
	case BucketCardioOnly:
		return generator.Filter{CardioOnly: true}
	default:
		return generator.Filter{}
	}
}

// LaggingType classifies why a muscle needs attention.
type LaggingType string

const (
	LaggingNeverTrained LaggingType = "neverTrained"
	LaggingUnderTrained LaggingType = "underTrained"
	LaggingNeglected    LaggingType = "neglected"
)

// LaggingMuscle is one muscle judged under-trained, with its priority rank.
type LaggingMuscle struct {
	Muscle           string      `json:"muscle"`
	Reps             int         `json:"reps"`
	Type             LaggingType `json:"type"`
	Bonus            int         `json:"bonus"`
	DaysSinceTrained int         `json:"days_since_trained"`
	Priority         int         `json:"priority"`
}
