package storage

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
)

var (
	Swap     *SwapStorage
	Decimals *DecimalsStorage
	Routes   *RouteStorage
)

func Init(client *sql.DB, decimals *redis.Client, routes *redis.Client) {
	Swap = NewSwapStorage(client)
	Decimals = NewDecimalsStorage(decimals)
	Routes = NewRouteStorage(routes)
}
