package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/Resanso/substation-simulator/internal/mysql"
)

const sensorObjectsQuery = `SELECT id, sensor_object_location_id
FROM sensor_objects
WHERE measurement_object_id = ?`

// MySQLResolver reads sensor objects straight from the collector database.
type MySQLResolver struct {
	db                  *sql.DB
	measurementObjectID int
}

// NewMySQLResolver creates a resolver for one measurement object.
func NewMySQLResolver(db *sql.DB, measurementObjectID int) *MySQLResolver {
	return &MySQLResolver{db: db, measurementObjectID: measurementObjectID}
}

// Resolve implements Resolver.
func (r *MySQLResolver) Resolve(ctx context.Context) (map[int]int, error) {
	rows, err := mysql.FetchRows(ctx, r.db, sensorObjectsQuery, r.measurementObjectID)
	if err != nil {
		return nil, fmt.Errorf("query sensor objects: %w", err)
	}
	return idsFromRows(rows)
}

func idsFromRows(rows []map[string]any) (map[int]int, error) {
	ids := make(map[int]int, len(rows))
	for _, row := range rows {
		id, err := toInt(row["id"])
		if err != nil {
			return nil, fmt.Errorf("sensor object id: %w", err)
		}
		loc, err := toInt(row["sensor_object_location_id"])
		if err != nil {
			return nil, fmt.Errorf("sensor object %d location: %w", id, err)
		}
		ids[loc] = id
	}
	return ids, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case int:
		return n, nil
	case uint64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unexpected column type %T", v)
	}
}
