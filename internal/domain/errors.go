package domain

import "errors"

var (
	// ErrParticipantNotFound is returned when a participant id has no stored record.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrInvalidIdentity indicates an identity tuple with a missing field.
	ErrInvalidIdentity = errors.New("invalid participant identity")
	// ErrCertificateRender wraps any failure while composing or saving a certificate image.
	ErrCertificateRender = errors.New("certificate generation failed")
	// ErrCertificateDelivery wraps any failure while rendering, building or sending the certificate email.
	ErrCertificateDelivery = errors.New("failed to send certificate email")
)
