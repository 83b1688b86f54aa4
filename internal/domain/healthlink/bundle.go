package healthlink

import (
	"encoding/json"
	"strings"

	"github.com/healthlink/healthlink/internal/platform/fhir"
)

// DocumentContentType is the only attachment media type accepted at issuance.
const DocumentContentType = "application/pdf"

// unknownPatientLabel is used when the subject resource carries no name.
const unknownPatientLabel = "Unknown Patient"

// BundleContents is the result of validating and decomposing a submitted
// bundle: the bundle text to encrypt, the subject display label, and the
// attached document bytes.
type BundleContents struct {
	BundleJSON  string
	PatientName string
	Document    []byte
}

// ExtractBundle validates a raw FHIR bundle and extracts the pieces the link
// service encrypts and labels. It is a pure function of its input; every
// failure is a *ValidationError naming the missing or invalid element.
func ExtractBundle(raw []byte) (*BundleContents, error) {
	var bundle fhir.Bundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, newValidationError("malformed bundle JSON")
	}

	if bundle.Type != "collection" {
		return nil, newValidationError("not a collection")
	}

	patient, ok := findPatient(bundle.Entry)
	if !ok {
		return nil, newValidationError("missing subject")
	}

	docRef, ok := findDocumentReference(bundle.Entry)
	if !ok {
		return nil, newValidationError("missing document reference")
	}

	attachment := firstAttachment(docRef)
	if attachment == nil {
		return nil, newValidationError("missing attachment")
	}
	if attachment.ContentType != DocumentContentType {
		return nil, newValidationError("unsupported content type")
	}
	if len(attachment.Data) == 0 {
		return nil, newValidationError("missing data")
	}

	return &BundleContents{
		BundleJSON:  string(raw),
		PatientName: patientLabel(patient),
		Document:    attachment.Data,
	}, nil
}

func findPatient(entries []fhir.BundleEntry) (*fhir.Patient, bool) {
	for _, e := range entries {
		if fhir.ResourceType(e.Resource) != "Patient" {
			continue
		}
		var p fhir.Patient
		if err := json.Unmarshal(e.Resource, &p); err != nil {
			continue
		}
		return &p, true
	}
	return nil, false
}

func findDocumentReference(entries []fhir.BundleEntry) (*fhir.DocumentReference, bool) {
	for _, e := range entries {
		if fhir.ResourceType(e.Resource) != "DocumentReference" {
			continue
		}
		var d fhir.DocumentReference
		if err := json.Unmarshal(e.Resource, &d); err != nil {
			continue
		}
		return &d, true
	}
	return nil, false
}

func firstAttachment(d *fhir.DocumentReference) *fhir.Attachment {
	for _, c := range d.Content {
		if c.Attachment != nil {
			return c.Attachment
		}
	}
	return nil
}

// patientLabel builds "<first given> <family>" trimmed of surrounding
// whitespace, falling back to a sentinel when the subject has no name.
func patientLabel(p *fhir.Patient) string {
	if len(p.Name) == 0 {
		return unknownPatientLabel
	}
	name := p.Name[0]
	given := ""
	if len(name.Given) > 0 {
		given = name.Given[0]
	}
	label := strings.TrimSpace(given + " " + name.Family)
	if label == "" {
		return unknownPatientLabel
	}
	return label
}
