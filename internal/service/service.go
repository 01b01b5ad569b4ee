// Package service provides business logic between API handlers and data
// stores. Services own the error propagation policy: domain errors
// (lock conflicts, not-found, not-authenticated) pass through unchanged
// so the UI can render them precisely; everything else is logged and
// re-raised as an OperationFailedError with a human-readable message.
package service

import (
	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// wrapFailure applies the propagation policy to err. Domain errors
// travel unchanged; other failures are logged with their cause and
// replaced by an OperationFailedError carrying only msg.
func wrapFailure(log *logrus.Logger, msg string, err error) error {
	if err == nil {
		return nil
	}

	if models.IsDomainError(err) {
		return err
	}

	log.WithError(err).Error(msg)

	return &models.OperationFailedError{Message: msg, Err: err}
}
