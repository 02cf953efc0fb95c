package payment

// Status mirrors the payment provider's status string carried on an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusSucceeded Status = "Succeeded"
)

// Info is the payment record submitted with the cart. Checkout stores it as-is;
// only delivery updates Status.
type Info struct {
	ID     string
	Method string
	Status Status
}
