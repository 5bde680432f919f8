package dto

import "encoding/json"

// UploadResponse reports a document forwarded to the record backend.
type UploadResponse struct {
	RequestID          string          `json:"request_id"`
	UploaderID         string          `json:"uploader_id"`
	EntityType         string          `json:"entity_type"`
	EntityID           string          `json:"entity_id"`
	EndpointIdentifier string          `json:"endpoint_identifier"`
	Files              int             `json:"files"`
	Backend            json.RawMessage `json:"backend"`
}
