package simulation

import "go.uber.org/zap"

// TraceObserver logs every settled step. Per-participant fills are logged
// at debug level.
type TraceObserver struct {
	log *zap.Logger
}

func NewTraceObserver(log *zap.Logger) *TraceObserver {
	if log == nil {
		log = zap.NewNop()
	}
	return &TraceObserver{log: log}
}

func (o *TraceObserver) OnStep(rec Record) {
	o.log.Info("step settled",
		zap.Int("step", rec.Step),
		zap.Float64("demand", rec.Demand),
		zap.Float64s("production_orders", rec.ProductionOrders),
		zap.String("regime", string(rec.Regime)),
		zap.Float64("buy_price", rec.BuyPrice),
		zap.Float64("sell_price", rec.SellPrice),
		zap.Float64("controlled_production", rec.ControlledProduction),
		zap.Float64("total_buy", rec.TotalBuy),
		zap.Float64("total_sell", rec.TotalSell),
		zap.Float64("net_demand", rec.NetDemand),
		zap.Float64("total_cost", rec.TotalCost),
	)
	if !o.log.Core().Enabled(zap.DebugLevel) {
		return
	}
	for _, f := range rec.Fills {
		fields := []zap.Field{
			zap.Int("step", rec.Step),
			zap.String("participant", f.ParticipantID),
			zap.String("action", string(f.Action)),
			zap.Float64("buy_amount", f.Order.BuyAmount),
			zap.Float64("sell_amount", f.Order.SellAmount),
			zap.Float64("cash_flow", f.CashFlow),
		}
		if f.HasStorage {
			fields = append(fields, zap.Float64("storage_mwh", f.StorageMWh))
		}
		o.log.Debug("participant order", fields...)
	}
}
