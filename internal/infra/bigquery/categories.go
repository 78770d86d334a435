package bigquery

import "time"

type CategoryRow struct {
	Kind      string    `bigquery:"kind"` // expense or income
	Name      string    `bigquery:"name"`
	CreatedTS time.Time `bigquery:"created_ts"`
}
