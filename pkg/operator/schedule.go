package operator

import (
	"time"

	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"
)

// RunForever runs one pass immediately and then again on every boundary of
// the given schedule. A failed pass is logged and does not stop the loop;
// each pass is independent.
func (o *Operator) RunForever(schedule cron.Schedule) {
	for {
		now := time.Now()
		if err := o.Run(now); err != nil {
			klog.Errorf("Run failed: %v", err)
		}

		next := schedule.Next(time.Now())
		klog.Infof("Next run at %s", next.Format("2006-01-02 15:04:05"))
		time.Sleep(time.Until(next))
	}
}
