package orders

type Status string

const (
	StatusCreated       Status = "CREATED"
	StatusStockReserved Status = "STOCK_RESERVED"
	StatusShipped       Status = "SHIPPED"
	StatusCompleted     Status = "COMPLETED"
	StatusCancelled     Status = "CANCELLED"
	StatusFailed        Status = "FAILED"
)

var validNext = map[Status]map[Status]bool{
	StatusCreated:       {StatusStockReserved: true, StatusFailed: true, StatusCancelled: true},
	StatusStockReserved: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:       {StatusCompleted: true},
	StatusCompleted:     {},
	StatusCancelled:     {},
	StatusFailed:        {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := validNext[st]
	return st, ok
}
