package crm

import (
	"encoding/json"
	"fmt"
)

// entity is the minimal shape this service reads back from the CRM: every
// record type (city, company, person, deal, note) carries an opaque integer id.
type entity struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// The CRM is inconsistent about response envelopes: list endpoints answer with
// a bare array, {"data": [...]} or {"payload": [...]} depending on the
// endpoint and API version. These two decoders normalize every observed shape
// at the boundary so the rest of the client never branches on envelope shape.

func decodeEntityList(body []byte) ([]entity, error) {
	if len(body) == 0 {
		return nil, nil
	}

	var bare []entity
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var enveloped struct {
		Data    []entity `json:"data"`
		Payload []entity `json:"payload"`
	}
	if err := json.Unmarshal(body, &enveloped); err != nil {
		return nil, fmt.Errorf("decode entity list: %w", err)
	}
	if enveloped.Data != nil {
		return enveloped.Data, nil
	}
	return enveloped.Payload, nil
}

func decodeEntity(body []byte) (entity, error) {
	if len(body) == 0 {
		return entity{}, fmt.Errorf("decode entity: empty body")
	}

	var enveloped struct {
		Data *entity `json:"data"`
	}
	if err := json.Unmarshal(body, &enveloped); err == nil && enveloped.Data != nil {
		return *enveloped.Data, nil
	}

	var bare entity
	if err := json.Unmarshal(body, &bare); err != nil {
		return entity{}, fmt.Errorf("decode entity: %w", err)
	}
	return bare, nil
}
