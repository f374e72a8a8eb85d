package domain

import (
	"errors"
	"fmt"
)

// Not-found errors. Services return these unwrapped or wrapped with context;
// the API layer matches them with errors.Is.
var (
	ErrWarehouseNotFound = errors.New("warehouse not found")
	ErrPartNotFound      = errors.New("part not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCartLineNotFound  = errors.New("cart line not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrStockRowNotFound  = errors.New("part not stocked in warehouse")
)

// Conflict errors.
var (
	ErrDuplicateName      = errors.New("name already exists")
	ErrDuplicatePart      = errors.New("part with this manufacturer part number already exists")
	ErrDuplicateWarehouse = errors.New("warehouse with this name and location already exists")
	ErrSelfParent         = errors.New("category cannot be its own parent")
	ErrCycleDetected      = errors.New("category parent change would create a cycle")
	ErrHasSubcategories   = errors.New("category still has subcategories")
	ErrHasParts           = errors.New("category still has associated parts")
	ErrWarehouseNotEmpty  = errors.New("warehouse still holds stock")
)

// Validation errors, rejected before any transaction starts.
var (
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrEmptyCart           = errors.New("cart is empty")
)

// ErrLockTimeout is the only retryable error: a bounded row-lock wait
// expired. Callers may retry with backoff.
var ErrLockTimeout = errors.New("row lock wait timed out")

// InsufficientStockError reports a request that exceeds the available
// quantity. The whole enclosing transaction rolls back when it is returned.
type InsufficientStockError struct {
	PartID    int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for part %d: requested %d, available %d",
		e.PartID, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err is an InsufficientStockError and
// returns it when so.
func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}
