package warehouse

import (
	"time"

	"github.com/datamill-io/ecomflow/internal/model"
)

// BuildDateDim generates the calendar dimension, one row per day over
// [start, end] inclusive. The dimension is algorithmic: it depends only on
// the range, never on which dates actually occur in the fact data.
func BuildDateDim(start, end time.Time) []model.DimDate {
	start = truncateDay(start)
	end = truncateDay(end)

	var dates []model.DimDate
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dow := int(d.Weekday())
		dates = append(dates, model.DimDate{
			Key:       model.DateKey(d),
			Date:      d,
			Year:      d.Year(),
			Quarter:   (int(d.Month())-1)/3 + 1,
			Month:     int(d.Month()),
			MonthName: d.Month().String(),
			Day:       d.Day(),
			DayOfWeek: dow,
			DayName:   d.Weekday().String(),
			IsWeekend: dow == 0 || dow == 6,
		})
	}
	return dates
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
