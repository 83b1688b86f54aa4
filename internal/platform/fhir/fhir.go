// Package fhir holds the lightweight FHIR resource views the health link
// service reads from submitted bundles. Only the fields the service inspects
// are modeled; entry resources stay raw JSON until their type is known.
package fhir

import "encoding/json"

// Bundle represents a FHIR Bundle resource.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

// BundleEntry holds one entry's resource as raw JSON.
type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
}

// HumanName is a FHIR HumanName element.
type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
	Prefix []string `json:"prefix,omitempty"`
	Suffix []string `json:"suffix,omitempty"`
}

// Patient is the subject resource view used to derive a display label.
type Patient struct {
	ResourceType string      `json:"resourceType"`
	ID           string      `json:"id,omitempty"`
	Name         []HumanName `json:"name,omitempty"`
}

// Attachment is a FHIR Attachment element. Data is the inline base64 payload;
// encoding/json decodes it during unmarshal.
type Attachment struct {
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"data,omitempty"`
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
}

// DocumentReferenceContent wraps an attachment inside a DocumentReference.
type DocumentReferenceContent struct {
	Attachment *Attachment `json:"attachment,omitempty"`
}

// DocumentReference is the document resource view used to extract the
// attached rendered document.
type DocumentReference struct {
	ResourceType string                     `json:"resourceType"`
	ID           string                     `json:"id,omitempty"`
	Status       string                     `json:"status,omitempty"`
	Content      []DocumentReferenceContent `json:"content,omitempty"`
}

// ResourceType reports the resourceType of a raw entry resource, or "" when
// the resource cannot be probed.
func ResourceType(raw json.RawMessage) string {
	var probe struct {
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.ResourceType
}
