package dbModel

import "github.com/KotFed0t/stockpicking_tracker/internal/date"

type DailyPrice struct {
	Date   date.Date `db:"date"`
	Ticker string    `db:"ticker"`
	Price  float64   `db:"price"`
}

type ExchangeRate struct {
	Date         date.Date `db:"date"`
	FromCurrency string    `db:"from_currency"`
	ToCurrency   string    `db:"to_currency"`
	Rate         float64   `db:"rate"`
}

type LatestDate struct {
	Key  string    `db:"key"`
	Date date.Date `db:"date"`
}
