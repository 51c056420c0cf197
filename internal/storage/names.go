package storage

import "fmt"

// Driver names accepted by the configuration
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// UnknownDriverError is returned if a configured storage driver does not exist
type UnknownDriverError struct {
	Name string
}

func (err *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown storage driver '%s' (expected one of %s, %s, %s, %s)", err.Name, DriverFile, DriverMemory, DriverRedis, DriverPostgres)
}
