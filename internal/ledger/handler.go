package ledger

import (
	"context"
	"fmt"
	"sync"
)

// Handler generates transaction records for one transaction type.
//
// Each business operation (deposit, booking payment, tip, etc.)
// implements this interface. A handler may return multiple records —
// a tip produces a tip_sent for the sender and a tip_received for the
// recipient — and all records from one call are committed atomically.
type Handler interface {
	// Type returns the unique transaction type identifier
	Type() TransactionType

	// Handle builds the transaction records for the given request data.
	// The data map is decoded into the handler's request type.
	Handle(ctx context.Context, data map[string]interface{}) ([]*Transaction, error)

	// ValidateData validates the request data before Handle is called
	ValidateData(ctx context.Context, data map[string]interface{}) error
}

// BaseHandler provides common functionality for handlers
type BaseHandler struct {
	handlerType TransactionType
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(handlerType TransactionType) BaseHandler {
	return BaseHandler{
		handlerType: handlerType,
	}
}

// Type returns the transaction type
func (h *BaseHandler) Type() TransactionType {
	return h.handlerType
}

// Registry manages transaction handlers.
// New transaction types plug in without touching the ledger core.
type Registry struct {
	handlers map[TransactionType]Handler
	mu       sync.RWMutex
}

// NewRegistry creates a new handler registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[TransactionType]Handler),
	}
}

// Register registers a handler for a transaction type
// Returns an error if a handler for this type is already registered
func (r *Registry) Register(handler Handler) error {
	if handler == nil {
		return ErrNilHandler
	}

	handlerType := handler.Type()
	if handlerType == "" {
		return ErrEmptyHandlerType
	}

	if !handlerType.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidTransactionType, handlerType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[handlerType]; exists {
		return fmt.Errorf("%w: %s", ErrHandlerDuplicate, handlerType)
	}

	r.handlers[handlerType] = handler
	return nil
}

// Get retrieves a handler by transaction type
func (r *Registry) Get(transactionType TransactionType) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, exists := r.handlers[transactionType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, transactionType)
	}

	return handler, nil
}

// Has checks if a handler is registered for the given transaction type
func (r *Registry) Has(transactionType TransactionType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.handlers[transactionType]
	return exists
}

// Types returns all registered transaction types
func (r *Registry) Types() []TransactionType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]TransactionType, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}
