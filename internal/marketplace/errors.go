package marketplace

import "errors"

var (
	ErrNotOwner            = errors.New("caller is not the asset owner")
	ErrInvalidPrice        = errors.New("price must be greater than zero")
	ErrInvalidFee          = errors.New("fee percentage cannot exceed 100")
	ErrAlreadyListed       = errors.New("asset already has an active listing")
	ErrNotListed           = errors.New("no active listing for asset")
	ErrInsufficientPayment = errors.New("payment is below the listing price")
	ErrTransferFailed      = errors.New("registry transfer failed")
	ErrDisbursementFailed  = errors.New("seller disbursement failed")
	ErrUnauthorized        = errors.New("caller is not the fee owner")
	ErrInvalidConstruction = errors.New("invalid engine construction")
)
