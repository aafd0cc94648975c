package simulation

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

func WriteRecordsCSV(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeRecordsCSV(f, records)
}

func EncodeRecordsCSV(out io.Writer, records []Record) error {
	w := csv.NewWriter(out)

	header := []string{
		"step",
		"demand",
		"controlled_production",
		"total_agent_buy",
		"total_agent_sell",
		"net_demand",
		"regime",
		"buy_price",
		"sell_price",
		"production_cost",
		"market_cost",
		"total_cost",
		"cum_cost",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Step),
			fmtFloat(r.Demand),
			fmtFloat(r.ControlledProduction),
			fmtFloat(r.TotalBuy),
			fmtFloat(r.TotalSell),
			fmtFloat(r.NetDemand),
			string(r.Regime),
			fmtFloat(r.BuyPrice),
			fmtFloat(r.SellPrice),
			fmtFloat(r.ProductionCost),
			fmtFloat(r.MarketCost),
			fmtFloat(r.TotalCost),
			fmtFloat(r.CumCost),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteFillsCSV writes one row per participant per step.
func WriteFillsCSV(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeFillsCSV(f, records)
}

func EncodeFillsCSV(out io.Writer, records []Record) error {
	w := csv.NewWriter(out)

	header := []string{
		"step",
		"participant",
		"action",
		"buy_price",
		"sell_price",
		"buy_amount",
		"sell_amount",
		"cash_flow",
		"storage_mwh",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		for _, f := range r.Fills {
			storage := ""
			if f.HasStorage {
				storage = fmtFloat(f.StorageMWh)
			}
			row := []string{
				strconv.Itoa(r.Step),
				f.ParticipantID,
				string(f.Action),
				fmtFloat(f.Prices.BuyPrice),
				fmtFloat(f.Prices.SellPrice),
				fmtFloat(f.Order.BuyAmount),
				fmtFloat(f.Order.SellAmount),
				fmtFloat(f.CashFlow),
				storage,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
