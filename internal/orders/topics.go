package orders

const (
	TopicOrderPlaced   = "order.placed"
	TopicStockReserved = "order.stock.reserved"
	TopicStockRejected = "order.stock.rejected"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
