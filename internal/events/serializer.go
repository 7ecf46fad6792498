// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package events

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Serializer handles event encoding and decoding for NATS messages.
// Marshal validates before encoding so malformed events never reach
// the wire; Unmarshal leaves validation to the consumer, which needs
// to route bad payloads to the poison queue rather than fail.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal converts a feedback event to JSON bytes.
func (s *Serializer) Marshal(event *FeedbackEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return data, nil
}

// Unmarshal converts JSON bytes to a feedback event.
func (s *Serializer) Unmarshal(data []byte) (*FeedbackEvent, error) {
	var event FeedbackEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}

	return &event, nil
}

// MarshalRecommendation converts a recommendation event to JSON bytes.
func (s *Serializer) MarshalRecommendation(event *RecommendationEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return data, nil
}

// UnmarshalRecommendation converts JSON bytes to a recommendation event.
func (s *Serializer) UnmarshalRecommendation(data []byte) (*RecommendationEvent, error) {
	var event RecommendationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}

	return &event, nil
}

// SerializeFeedback is a convenience function that marshals a feedback event.
func SerializeFeedback(event *FeedbackEvent) ([]byte, error) {
	return NewSerializer().Marshal(event)
}

// DeserializeFeedback is a convenience function that unmarshals a feedback event.
func DeserializeFeedback(data []byte) (*FeedbackEvent, error) {
	return NewSerializer().Unmarshal(data)
}
