package order

// OrderState implements the state pattern for order lifecycle transitions.
// CREATED is the only non-terminal state.
type OrderState interface {
	Status() Status
	OnPaymentSucceeded(o *Order) (OrderState, error)
	OnPaymentFailed(o *Order) (OrderState, error)
}

func stateOf(s Status) OrderState {
	switch s {
	case StatusCompleted:
		return completedState{}
	case StatusPaymentFailed:
		return paymentFailedState{}
	default:
		return createdState{}
	}
}

type createdState struct{}

func (createdState) Status() Status { return StatusCreated }

func (createdState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return completedState{}, nil
}

func (createdState) OnPaymentFailed(*Order) (OrderState, error) {
	return paymentFailedState{}, nil
}

type completedState struct{}

func (completedState) Status() Status { return StatusCompleted }

func (completedState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (completedState) OnPaymentFailed(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

type paymentFailedState struct{}

func (paymentFailedState) Status() Status { return StatusPaymentFailed }

func (paymentFailedState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (paymentFailedState) OnPaymentFailed(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}
