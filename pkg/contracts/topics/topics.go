package topics

const (
	// Cotações brutas do provedor de odds
	QuoteBatches = "quote_batches"

	// DLQ
	QuoteBatchesDLQ = "quote_batches_dlq"
)
