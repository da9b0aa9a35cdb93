// Package policy decides which identity may perform which action.
package policy

import (
	"orderdesk/internal/apperror"
	"orderdesk/internal/models"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID  string
	IsAdmin bool
}

// Action names something a caller wants to do.
type Action string

const (
	ManageCatalog  Action = "catalog.manage"
	ViewOrder      Action = "order.view"
	ViewAnyOrder   Action = "order.viewAny"
	UpdateOrder    Action = "order.update"
	DeleteOrder    Action = "order.delete"
	SetOrderStatus Action = "order.setStatus"
)

// Policy returns nil when identity may perform action on resource and a
// forbidden error otherwise. resource may be nil for actions that are not
// tied to a record.
type Policy interface {
	Authorize(identity Identity, action Action, resource any) error
}

// Default is the access policy of the service: admins manage the catalog
// and see every order; everybody else only touches their own orders.
type Default struct{}

// New returns the default policy.
func New() Default {
	return Default{}
}

func (Default) Authorize(identity Identity, action Action, resource any) error {
	switch action {
	case ManageCatalog, ViewAnyOrder, SetOrderStatus:
		if identity.IsAdmin {
			return nil
		}
	case ViewOrder, UpdateOrder, DeleteOrder:
		order, ok := resource.(*models.Order)
		if !ok || order == nil {
			return apperror.Forbidden("action %s requires an order", action)
		}
		if identity.IsAdmin || (identity.UserID != "" && order.UserID == identity.UserID) {
			return nil
		}
	default:
		return apperror.Forbidden("unknown action %s", action)
	}
	return apperror.Forbidden("you are not allowed to perform %s", action)
}

var _ Policy = Default{}
