// Package monitor samples an unused-stack estimate on an interval and
// tracks its minimum, the high-water mark of stack usage seen so far.
//
// A Monitor polls any stackgauge.Sampler (a gauge, a guest probe) and
// keeps the lowest value returned. Observers receive every sample;
// logging goes through zap and is silent unless a logger is supplied.
//
//	m := monitor.New(probe,
//		monitor.WithInterval(time.Second),
//		monitor.WithLogger(logger),
//	)
//	go m.Run(ctx)
//	...
//	min, ok := m.Min() // lowest unused estimate observed
package monitor
