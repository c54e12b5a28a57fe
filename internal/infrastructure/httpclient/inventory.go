package httpclient

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http/api"
)

// Inventory reserves stock on a remote inventory service. Refusals come back
// as the same typed errors the in-process ledger returns.
type Inventory struct{ c client }

// NewInventory returns a client for baseURL; hc may be nil.
func NewInventory(baseURL string, hc *http.Client) *Inventory {
	return &Inventory{c: newClient(baseURL, hc)}
}

func (i *Inventory) Reserve(ctx context.Context, productID string, quantity int) error {
	var out api.ReservationResponse
	_, err := i.c.do(ctx, http.MethodPost, "/reserve",
		api.ReservationRequest{ProductID: productID, Quantity: quantity}, &out,
		http.StatusOK, http.StatusBadRequest)
	if err != nil {
		return err
	}
	if out.Success {
		return nil
	}
	return reservationError(out)
}

func reservationError(out api.ReservationResponse) error {
	switch out.Code {
	case api.CodeNotFound:
		return dominv.ErrNotFound
	case api.CodeInsufficientStock:
		return dominv.ErrInsufficientStock
	case api.CodeValidation:
		return application.Validation(strings.TrimPrefix(out.Message, application.ErrValidation.Error()+": "))
	default:
		return errors.New("inventory: " + out.Message)
	}
}
