package order

import (
	"strconv"
	"strings"
	"time"

	"le-palanka/internal/models"
)

// nextOrderNumber returns ORD_YYYYMMDD_NNN where NNN follows the highest
// sequence already used on that UTC day
func nextOrderNumber(orders []models.Order, now time.Time) string {
	day := now.UTC()
	prefix := models.GenerateOrderNumber(day, 0)
	prefix = prefix[:strings.LastIndex(prefix, "_")+1]

	last := 0
	for _, o := range orders {
		if !strings.HasPrefix(o.ID, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(o.ID, prefix))
		if err != nil {
			continue
		}
		if seq > last {
			last = seq
		}
	}

	return models.GenerateOrderNumber(day, last+1)
}
