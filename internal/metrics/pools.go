package metrics

import "github.com/prometheus/client_golang/prometheus"

// poolCollector expone gauges por pool de tenant.
type poolCollector struct {
	pools PoolStatser

	countDesc *prometheus.Desc
	openDesc  *prometheus.Desc
	inUseDesc *prometheus.Desc
	idleDesc  *prometheus.Desc
	waitDesc  *prometheus.Desc
}

func newPoolCollector(p PoolStatser) *poolCollector {
	labels := []string{"database"}
	return &poolCollector{
		pools:     p,
		countDesc: prometheus.NewDesc("tenant_pool_count", "Cantidad de pools de tenants activos", nil, nil),
		openDesc:  prometheus.NewDesc("tenant_pool_open_connections", "Conexiones abiertas por tenant", labels, nil),
		inUseDesc: prometheus.NewDesc("tenant_pool_in_use", "Conexiones en uso por tenant", labels, nil),
		idleDesc:  prometheus.NewDesc("tenant_pool_idle", "Conexiones inactivas por tenant", labels, nil),
		waitDesc:  prometheus.NewDesc("tenant_pool_wait_count", "Esperas acumuladas por una conexión", labels, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.countDesc
	ch <- c.openDesc
	ch <- c.inUseDesc
	ch <- c.idleDesc
	ch <- c.waitDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.pools.Stats()
	ch <- prometheus.MustNewConstMetric(c.countDesc, prometheus.GaugeValue, float64(len(stats)))
	for _, st := range stats {
		ch <- prometheus.MustNewConstMetric(c.openDesc, prometheus.GaugeValue, float64(st.Open), st.Database)
		ch <- prometheus.MustNewConstMetric(c.inUseDesc, prometheus.GaugeValue, float64(st.InUse), st.Database)
		ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(st.Idle), st.Database)
		ch <- prometheus.MustNewConstMetric(c.waitDesc, prometheus.CounterValue, float64(st.WaitCount), st.Database)
	}
}
