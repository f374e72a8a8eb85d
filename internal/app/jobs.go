package app

import (
	"context"
	"os"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/partdepot/partdepot/internal/domain"
	"github.com/partdepot/partdepot/pkg/metrics"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
		go a.SchedProcessMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.SchedClearExpireData()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@hourly", func() {
		if drifted, err := a.RunConsistencySweep(); err != nil {
			zap.S().Errorf("consistency sweep error %s", err.Error())
		} else if drifted > 0 {
			zap.S().Warnf("consistency sweep repaired %d drifted aggregates", drifted)
		}
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	// Collect CPU usage
	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		metrics.Gauge(metrics.MetricSystemCPUUsage, _cpuuse[0])
	}

	// Collect memory usage
	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.Gauge(metrics.MetricSystemMemUsage, _meminfo.UsedPercent)
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PID is always within int32 range
	if err != nil {
		return
	}

	meminfo, err := p.MemoryInfo()
	if err == nil {
		metrics.Gauge(metrics.MetricProcMemoryBytes, float64(meminfo.RSS))
	}
}

// SchedClearExpireData purges stale cart lines and aged audit rows.
func (a *Application) SchedClearExpireData() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	ttl := a.settings.CartSettings().TTLHours
	if ttl <= 0 {
		ttl = 72
	}
	a.gormDB.Where("updated_at < ?",
		time.Now().Add(-time.Hour*time.Duration(ttl))).
		Delete(&domain.CartLine{})

	idays := a.settings.GetInt64("system", "OpLogRetentionDays")
	if idays == 0 {
		idays = 365
	}
	a.gormDB.
		Where("opt_time < ? ", time.Now().
			Add(-time.Hour*24*time.Duration(idays))).Delete(&domain.SysOpLog{})
}

// RunConsistencySweep recomputes every part aggregate from its stock rows
// through a bounded worker pool and reports how many had drifted.
func (a *Application) RunConsistencySweep() (int, error) {
	workers := int(a.settings.InventorySettings().SweepWorkers)
	if workers <= 0 {
		workers = 4
	}

	var partIDs []int64
	if err := a.gormDB.Model(&domain.Part{}).Order("id ASC").Pluck("id", &partIDs).Error; err != nil {
		return 0, err
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return 0, err
	}
	defer pool.Release()

	var g errgroup.Group
	drifts := make([]int, len(partIDs))
	for i, id := range partIDs {
		i, id := i, id
		g.Go(func() error {
			done := make(chan error, 1)
			submitErr := pool.Submit(func() {
				drift, err := a.inventorySvc.RepairAggregate(context.Background(), id)
				if err == nil && drift != 0 {
					drifts[i] = 1
					metrics.Inc(metrics.MetricStockDrift)
					zap.L().Warn("repaired drifted stock aggregate",
						zap.Int64("part_id", id),
						zap.Int("drift", drift))
				}
				done <- err
			})
			if submitErr != nil {
				return submitErr
			}
			return <-done
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	drifted := 0
	for _, d := range drifts {
		drifted += d
	}
	return drifted, nil
}
