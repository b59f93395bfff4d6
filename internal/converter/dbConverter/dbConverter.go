package dbConverter

import (
	"database/sql"

	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/internal/model/dbModel"
)

func ConvertPosition(dbPosition dbModel.Position) model.Position {
	return model.Position{
		Name:             dbPosition.Name,
		Ticker:           dbPosition.Ticker,
		Exchange:         dbPosition.Exchange,
		Weight:           dbPosition.Weight,
		FormattedTicker:  dbPosition.FormattedTicker,
		Shares:           fromNull(dbPosition.Shares),
		PriceAtStart:     fromNull(dbPosition.PriceAtStart),
		TargetAllocation: fromNull(dbPosition.TargetAllocation),
		Allocation:       fromNull(dbPosition.Allocation),
	}
}

func ConvertDailyPrice(dbPrice dbModel.DailyPrice) model.DailyPrice {
	return model.DailyPrice{
		Date:   dbPrice.Date,
		Ticker: dbPrice.Ticker,
		Price:  dbPrice.Price,
	}
}

func ConvertExchangeRate(dbRate dbModel.ExchangeRate) model.ExchangeRate {
	return model.ExchangeRate{
		Date:         dbRate.Date,
		FromCurrency: dbRate.FromCurrency,
		ToCurrency:   dbRate.ToCurrency,
		Rate:         dbRate.Rate,
	}
}

func ConvertPortfolioValue(dbValue dbModel.PortfolioValue) model.PortfolioValue {
	return model.PortfolioValue{
		Date:      dbValue.Date,
		Name:      dbValue.Name,
		Value:     dbValue.Value,
		PctChange: dbValue.PctChange,
	}
}

func ConvertPerformanceMetric(dbMetric dbModel.PerformanceMetric) model.PerformanceMetric {
	return model.PerformanceMetric{
		Name:                dbMetric.Name,
		InitialValue:        dbMetric.InitialValue,
		FinalValue:          dbMetric.FinalValue,
		TotalReturnPct:      dbMetric.TotalReturnPct,
		AnnualizedReturnPct: dbMetric.AnnualizedReturnPct,
		LastUpdated:         dbMetric.LastUpdated,
	}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// ToNullable converts an optional value to a driver argument: nil stays NULL.
func ToNullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
