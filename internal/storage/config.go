package storage

const (
	KEY_DECIMALS = "storage::decimals"
	KEY_ROUTES   = "storage::routes"
)

// Redis logical databases, one per concern.
const (
	REDIS_DB_DECIMALS = 1
	REDIS_DB_ROUTES   = 2
)

const (
	TABLE_NAME_SWAP = "swaps"
)
