package order

import "fmt"

type Status string

const (
	StatusProcessing                   Status = "Processing"
	StatusTransferredToDeliveryPartner Status = "Transferred to delivery partner"
	StatusDelivered                    Status = "Delivered"
	StatusRefundRequested              Status = "Processing refund"
	StatusRefundApproved               Status = "Refund Success"
)

// ParseStatus accepts only the closed set of lifecycle states.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusProcessing, StatusTransferredToDeliveryPartner, StatusDelivered,
		StatusRefundRequested, StatusRefundApproved:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidStateTransition, s)
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusRefundApproved
}

type Event string

const (
	EventDispatch      Event = "dispatch"
	EventDeliver       Event = "deliver"
	EventRequestRefund Event = "request_refund"
	EventApproveRefund Event = "approve_refund"
)

// EventFor maps a requested target status to the event that reaches it.
func EventFor(target Status) (Event, error) {
	switch target {
	case StatusTransferredToDeliveryPartner:
		return EventDispatch, nil
	case StatusDelivered:
		return EventDeliver, nil
	case StatusRefundRequested:
		return EventRequestRefund, nil
	case StatusRefundApproved:
		return EventApproveRefund, nil
	}
	return "", fmt.Errorf("%w: no event reaches %q", ErrInvalidStateTransition, target)
}

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	OnDispatch(o *Order) (OrderState, error)
	OnDeliver(o *Order) (OrderState, error)
	OnRefundRequested(o *Order) (OrderState, error)
	OnRefundApproved(o *Order) (OrderState, error)
}

func stateFor(s Status) (OrderState, error) {
	switch s {
	case StatusProcessing:
		return processingState{}, nil
	case StatusTransferredToDeliveryPartner:
		return transferredState{}, nil
	case StatusDelivered:
		return deliveredState{}, nil
	case StatusRefundRequested:
		return refundRequestedState{}, nil
	case StatusRefundApproved:
		return refundApprovedState{}, nil
	}
	return nil, fmt.Errorf("%w: order in unknown status %q", ErrInvalidStateTransition, s)
}

// rejectAll is embedded by every state; states override only the edges they allow.
type rejectAll struct{}

func (rejectAll) OnDispatch(*Order) (OrderState, error)        { return nil, ErrInvalidStateTransition }
func (rejectAll) OnDeliver(*Order) (OrderState, error)         { return nil, ErrInvalidStateTransition }
func (rejectAll) OnRefundRequested(*Order) (OrderState, error) { return nil, ErrInvalidStateTransition }
func (rejectAll) OnRefundApproved(*Order) (OrderState, error)  { return nil, ErrInvalidStateTransition }

type processingState struct{ rejectAll }

func (processingState) Status() Status { return StatusProcessing }

func (processingState) OnDispatch(*Order) (OrderState, error) {
	return transferredState{}, nil
}

func (processingState) OnRefundRequested(*Order) (OrderState, error) {
	return refundRequestedState{}, nil
}

type transferredState struct{ rejectAll }

func (transferredState) Status() Status { return StatusTransferredToDeliveryPartner }

func (transferredState) OnDeliver(*Order) (OrderState, error) {
	return deliveredState{}, nil
}

type deliveredState struct{ rejectAll }

func (deliveredState) Status() Status { return StatusDelivered }

type refundRequestedState struct{ rejectAll }

func (refundRequestedState) Status() Status { return StatusRefundRequested }

func (refundRequestedState) OnRefundApproved(*Order) (OrderState, error) {
	return refundApprovedState{}, nil
}

type refundApprovedState struct{ rejectAll }

func (refundApprovedState) Status() Status { return StatusRefundApproved }
