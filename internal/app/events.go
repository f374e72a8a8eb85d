package app

import (
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/partdepot/partdepot/internal/domain"
	"github.com/partdepot/partdepot/internal/inventory"
	"github.com/partdepot/partdepot/internal/ordering"
	"github.com/partdepot/partdepot/pkg/common"
	"github.com/partdepot/partdepot/pkg/metrics"
)

// initEvents wires metric counters and the audit trail to the domain event
// topics. Subscribers run async so a slow audit insert never blocks a commit.
func (a *Application) initEvents() {
	a.bus = EventBus.New()

	err := a.bus.SubscribeAsync(inventory.TopicStockChanged, func(op string, change inventory.StockChange) {
		switch op {
		case "add":
			metrics.Inc(metrics.MetricStockAdd)
		case "decrease":
			metrics.Inc(metrics.MetricStockDecrease)
		}
		a.writeOpLog("stock."+op, fmt.Sprintf(
			"warehouse=%d part=%d qty=%d total=%d",
			change.WarehouseID, change.PartID, change.Quantity, change.Total))
	}, false)
	if err != nil {
		zap.S().Errorf("subscribe %s error %s", inventory.TopicStockChanged, err.Error())
	}

	err = a.bus.SubscribeAsync(ordering.TopicOrderCreated, func(order domain.Order) {
		metrics.Inc(metrics.MetricOrderCreated)
		a.writeOpLog("order.created", fmt.Sprintf(
			"order=%s user=%d items=%d amount=%.2f",
			order.OrderNumber, order.UserID, len(order.Items), order.TotalAmount))
	}, false)
	if err != nil {
		zap.S().Errorf("subscribe %s error %s", ordering.TopicOrderCreated, err.Error())
	}
}

func (a *Application) writeOpLog(action, desc string) {
	err := a.gormDB.Create(&domain.SysOpLog{
		ID:        common.UUIDint64(),
		Username:  "system",
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}).Error
	if err != nil {
		zap.L().Warn("failed to write op log", zap.String("action", action), zap.Error(err))
	}
}
