package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
)

// storeErr passes domain sentinels through and marks everything else as a
// store failure.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrConflict),
		errors.Is(err, common.ErrValidation):
		return err
	default:
		return fmt.Errorf("%s: %w: %v", op, common.ErrStoreFailure, err)
	}
}

// deliveryErr makes sure a mailer error matches common.ErrDeliveryFailure.
func deliveryErr(err error) error {
	if err == nil || errors.Is(err, common.ErrDeliveryFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrDeliveryFailure, err)
}
